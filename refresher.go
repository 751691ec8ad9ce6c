package gocbcfg

import "context"

// ProposedBucketConfigContext carries a raw configuration payload received
// from the cluster together with the address it originated from.
type ProposedBucketConfigContext struct {
	BucketName string
	Config     []byte
	Origin     string
}

// Refresher is a background source of proposed configurations for buckets
// that have already been opened.
type Refresher interface {
	// Configs is the stream of proposed configurations. The provider
	// subscribes once and routes every emission into config acceptance.
	Configs() <-chan ProposedBucketConfigContext

	// RegisterBucket starts refreshing the given bucket. A registration
	// error fails the bootstrap of that bucket.
	RegisterBucket(ctx context.Context, bucketName, username, password string) error
}
