package gocbcfg

import "maps"

// ClusterConfig is an immutable snapshot mapping bucket names to their
// current configuration. The provider replaces the whole snapshot on every
// accepted change, so readers never observe torn state.
type ClusterConfig struct {
	bucketConfigs map[string]*BucketConfig
}

func NewClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		bucketConfigs: make(map[string]*BucketConfig),
	}
}

// HasBucket indicates whether the snapshot contains a config for the bucket.
func (c *ClusterConfig) HasBucket(bucketName string) bool {
	_, ok := c.bucketConfigs[bucketName]
	return ok
}

// BucketConfig returns the config for the named bucket, or nil.
func (c *ClusterConfig) BucketConfig(bucketName string) *BucketConfig {
	return c.bucketConfigs[bucketName]
}

// BucketConfigs returns a copy of the bucket-name to config mapping.
func (c *ClusterConfig) BucketConfigs() map[string]*BucketConfig {
	return maps.Clone(c.bucketConfigs)
}

// NumBuckets returns the number of buckets in the snapshot.
func (c *ClusterConfig) NumBuckets() int {
	return len(c.bucketConfigs)
}

func (c *ClusterConfig) withBucketConfig(config *BucketConfig) *ClusterConfig {
	dup := maps.Clone(c.bucketConfigs)
	dup[config.Name] = config
	return &ClusterConfig{
		bucketConfigs: dup,
	}
}
