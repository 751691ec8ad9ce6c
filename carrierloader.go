package gocbcfg

import (
	"context"

	"go.uber.org/zap"
)

// CarrierTransport is the wire-level client boundary used to fetch bucket
// configurations over the binary key-value protocol.
type CarrierTransport interface {
	FetchBucketConfig(ctx context.Context, seed string, bucketName, username, password string) ([]byte, error)
}

type CarrierLoaderOptions struct {
	Logger *zap.Logger
}

// CarrierLoader bootstraps bucket configurations through the binary
// key-value service of a seed node.
type CarrierLoader struct {
	logger    *zap.Logger
	transport CarrierTransport
}

var _ Loader = (*CarrierLoader)(nil)

func NewCarrierLoader(transport CarrierTransport, opts *CarrierLoaderOptions) (*CarrierLoader, error) {
	if opts == nil {
		opts = &CarrierLoaderOptions{}
	}

	return &CarrierLoader{
		logger:    loggerOrNop(opts.Logger),
		transport: transport,
	}, nil
}

func (l *CarrierLoader) LoadConfig(
	ctx context.Context,
	seed string,
	bucketName, username, password string,
) (LoaderType, *BucketConfig, error) {
	raw, err := l.transport.FetchBucketConfig(ctx, seed, bucketName, username, password)
	if err != nil {
		return "", nil, err
	}

	hostOnly, err := hostFromHostPort(seed)
	if err != nil {
		hostOnly = seed
	}

	config, err := ConfigParser{}.ParseConfig(raw, hostOnly)
	if err != nil {
		return "", nil, err
	}

	return LoaderTypeCarrier, config, nil
}
