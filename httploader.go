package gocbcfg

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type HttpLoaderConfig struct {
	HttpRoundTripper http.RoundTripper
	UserAgent        string
}

type HttpLoaderOptions struct {
	Logger *zap.Logger
}

// HttpLoader bootstraps bucket configurations from the management service of
// a seed node. It is the fallback strategy for clusters where the carrier
// path is unavailable.
type HttpLoader struct {
	logger           *zap.Logger
	httpRoundTripper http.RoundTripper
	userAgent        string
}

var _ Loader = (*HttpLoader)(nil)

func NewHttpLoader(config *HttpLoaderConfig, opts *HttpLoaderOptions) (*HttpLoader, error) {
	if opts == nil {
		opts = &HttpLoaderOptions{}
	}

	httpRoundTripper := config.HttpRoundTripper
	if httpRoundTripper == nil {
		httpRoundTripper = http.DefaultTransport
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "gocbcfg"
	}

	return &HttpLoader{
		logger:           loggerOrNop(opts.Logger),
		httpRoundTripper: httpRoundTripper,
		userAgent:        userAgent,
	}, nil
}

func (l *HttpLoader) LoadConfig(
	ctx context.Context,
	seed string,
	bucketName, username, password string,
) (LoaderType, *BucketConfig, error) {
	reqURI := "http://" + seed + "/pools/default/b/" + url.PathEscape(bucketName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURI, nil)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build terse config request")
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("User-Agent", l.userAgent)

	client := http.Client{
		Transport: l.httpRoundTripper,
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to fetch terse config")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", nil, errors.Errorf("unexpected status %d fetching terse config", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to read terse config body")
	}

	hostOnly, err := hostFromHostPort(seed)
	if err != nil {
		return "", nil, err
	}

	config, err := ConfigParser{}.ParseConfig(raw, hostOnly)
	if err != nil {
		return "", nil, err
	}

	return LoaderTypeHttp, config, nil
}
