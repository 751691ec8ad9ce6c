package gocbcfg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"slices"
)

var errRefresherClosed = errors.New("refresher has been closed")

type HttpStreamingRefresherConfig struct {
	HttpRoundTripper http.RoundTripper

	// Endpoints are management endpoints, e.g. "http://10.0.0.1:8091".
	Endpoints []string
	UserAgent string
}

type HttpStreamingRefresherOptions struct {
	Logger *zap.Logger

	// RetryWaitPeriod is how long to wait once every endpoint has failed in
	// a row before starting over.
	RetryWaitPeriod time.Duration
}

type httpStreamingRefresherState struct {
	httpRoundTripper http.RoundTripper
	endpoints        []string
	userAgent        string
}

// HttpStreamingRefresher streams bucket configurations from the management
// service for every registered bucket and emits them as proposed configs.
// Endpoints are rotated so a faulty node does not pin the stream.
type HttpStreamingRefresher struct {
	logger          *zap.Logger
	retryWaitPeriod time.Duration

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc

	lock    sync.Mutex
	state   *httpStreamingRefresherState
	buckets map[string]context.CancelFunc
	closed  bool

	configsCh chan ProposedBucketConfigContext
	watchWg   sync.WaitGroup
}

var _ Refresher = (*HttpStreamingRefresher)(nil)

func NewHttpStreamingRefresher(
	config *HttpStreamingRefresherConfig,
	opts *HttpStreamingRefresherOptions,
) (*HttpStreamingRefresher, error) {
	if opts == nil {
		opts = &HttpStreamingRefresherOptions{}
	}

	retryWaitPeriod := opts.RetryWaitPeriod
	if retryWaitPeriod == 0 {
		retryWaitPeriod = 5 * time.Second
	}

	httpRoundTripper := config.HttpRoundTripper
	if httpRoundTripper == nil {
		httpRoundTripper = http.DefaultTransport
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "gocbcfg"
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	return &HttpStreamingRefresher{
		logger:          loggerOrNop(opts.Logger),
		retryWaitPeriod: retryWaitPeriod,
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		state: &httpStreamingRefresherState{
			httpRoundTripper: httpRoundTripper,
			endpoints:        slices.Clone(config.Endpoints),
			userAgent:        userAgent,
		},
		buckets:   make(map[string]context.CancelFunc),
		configsCh: make(chan ProposedBucketConfigContext, 1),
	}, nil
}

// Reconfigure swaps the endpoint set used by all bucket streams.
func (r *HttpStreamingRefresher) Reconfigure(config *HttpStreamingRefresherConfig) error {
	httpRoundTripper := config.HttpRoundTripper
	if httpRoundTripper == nil {
		httpRoundTripper = http.DefaultTransport
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "gocbcfg"
	}

	r.lock.Lock()
	r.state = &httpStreamingRefresherState{
		httpRoundTripper: httpRoundTripper,
		endpoints:        slices.Clone(config.Endpoints),
		userAgent:        userAgent,
	}
	r.lock.Unlock()

	return nil
}

func (r *HttpStreamingRefresher) Configs() <-chan ProposedBucketConfigContext {
	return r.configsCh
}

func (r *HttpStreamingRefresher) RegisterBucket(ctx context.Context, bucketName, username, password string) error {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return errRefresherClosed
	}

	if _, ok := r.buckets[bucketName]; ok {
		// already being refreshed
		r.lock.Unlock()
		return nil
	}

	watchCtx, watchCancel := context.WithCancel(r.shutdownCtx)
	r.buckets[bucketName] = watchCancel
	r.lock.Unlock()

	r.watchWg.Add(1)
	go r.watchThread(watchCtx, bucketName, username, password)

	return nil
}

// UnregisterBucket stops refreshing the given bucket.
func (r *HttpStreamingRefresher) UnregisterBucket(bucketName string) {
	r.lock.Lock()
	cancel, ok := r.buckets[bucketName]
	if ok {
		delete(r.buckets, bucketName)
	}
	r.lock.Unlock()

	if ok {
		cancel()
	}
}

func (r *HttpStreamingRefresher) Close() error {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return nil
	}
	r.closed = true
	r.buckets = make(map[string]context.CancelFunc)
	r.lock.Unlock()

	r.shutdownCancel()
	r.watchWg.Wait()
	close(r.configsCh)

	return nil
}

func (r *HttpStreamingRefresher) watchThread(ctx context.Context, bucketName, username, password string) {
	defer r.watchWg.Done()

	var recentEndpoints []string
	allEndpointsFailed := true

	for ctx.Err() == nil {
		r.lock.Lock()
		state := r.state
		r.lock.Unlock()

		// if there are no endpoints to stream from, we need to sleep and wait
		if len(state.endpoints) == 0 {
			_ = contextSleep(ctx, r.retryWaitPeriod)
			continue
		}

		// remove the most recently used endpoints
		remainingEndpoints := filterStringsOut(state.endpoints, recentEndpoints)

		// if there are no endpoints left, we reset the lists
		if len(remainingEndpoints) == 0 {
			if allEndpointsFailed {
				// if all the endpoints failed in a row, we do a sleep to
				// ensure we don't loop for no reason
				_ = contextSleep(ctx, r.retryWaitPeriod)
			}

			recentEndpoints = nil
			allEndpointsFailed = true

			continue
		}

		endpoint := remainingEndpoints[0]
		recentEndpoints = append(recentEndpoints, endpoint)

		err := r.streamOne(ctx, state, endpoint, bucketName, username, password)
		if err != nil {
			r.logger.Debug("bucket config stream ended",
				zap.Error(err),
				zap.String("endpoint", endpoint),
				zap.String("bucketName", bucketName))
			continue
		}

		allEndpointsFailed = false
	}
}

func (r *HttpStreamingRefresher) streamOne(
	ctx context.Context,
	state *httpStreamingRefresherState,
	endpoint string,
	bucketName, username, password string,
) error {
	reqURI := endpoint + "/pools/default/bs/" + url.PathEscape(bucketName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURI, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to build streaming config request")
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("User-Agent", state.userAgent)

	client := http.Client{
		Transport: state.httpRoundTripper,
	}
	resp, err := client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open streaming config connection")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Errorf("unexpected status %d opening streaming config connection", resp.StatusCode)
	}

	host, err := getHostFromUri(endpoint)
	if err != nil {
		return err
	}

	// the server terminates each payload with four newlines
	reader := bufio.NewReader(resp.Body)
	var chunk []byte
	for {
		line, err := reader.ReadBytes('\n')
		chunk = append(chunk, line...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// the server closed the stream, rotate to another endpoint
				return nil
			}
			return err
		}

		if !bytes.HasSuffix(chunk, []byte("\n\n\n\n")) {
			continue
		}

		payload := bytes.TrimSpace(chunk)
		chunk = nil
		if len(payload) == 0 {
			continue
		}

		select {
		case r.configsCh <- ProposedBucketConfigContext{
			BucketName: bucketName,
			Config:     payload,
			Origin:     host,
		}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
