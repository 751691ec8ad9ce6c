package gocbcfg

import "context"

// LoaderType identifies the bootstrap strategy a config was obtained with and
// keys the refresher that takes over once the bucket is open.
type LoaderType string

const (
	LoaderTypeCarrier = LoaderType("carrier")
	LoaderTypeHttp    = LoaderType("http")
)

// Loader is a bootstrap strategy which fetches the initial configuration of a
// bucket from a single seed address. Implementations must be side-effect-free
// beyond the network attempt itself and must honor context cancellation, as
// the provider races one attempt per seed and abandons the losers.
type Loader interface {
	LoadConfig(ctx context.Context, seed string, bucketName, username, password string) (LoaderType, *BucketConfig, error)
}
