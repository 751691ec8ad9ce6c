package gocbcfg

type BucketType int

const (
	BucketTypeInvalid BucketType = iota
	BucketTypeCouchbase
	BucketTypeMemcached
	BucketTypeEphemeral
)

// RevUnversioned marks a config which did not carry a revision. Such configs
// can seed the very first state of a bucket during bootstrap but are never
// accepted over an existing one.
const RevUnversioned int64 = -1

// BucketConfig is an immutable view of one bucket's topology at a specific
// revision. The Type tag selects which of the variant fields is populated:
// VbucketMap for couchbase and ephemeral buckets, KetamaRing for memcached
// buckets.
type BucketConfig struct {
	Type BucketType
	Name string
	UUID string
	Rev  int64

	// Nodes preserves the server-provided node order.
	Nodes []NodeInfo

	// UseAlternateNetwork carries the network name selected by the resolver,
	// or an empty string when nodes are addressed by their default addresses.
	// It is assigned by the provider, never by the parser.
	UseAlternateNetwork string

	VbucketMap *VbucketMap
	KetamaRing *KetamaRing
}

// IsVersioned indicates whether the config carried a revision.
func (c *BucketConfig) IsVersioned() bool {
	return c.Rev >= 0
}

// Compare orders two configs of the same bucket by revision.
func (c *BucketConfig) Compare(oconfig *BucketConfig) int {
	if c.Rev < oconfig.Rev {
		return -1
	} else if c.Rev > oconfig.Rev {
		return +1
	}
	return 0
}

func (c *BucketConfig) withAlternateNetwork(networkType string) *BucketConfig {
	if c.UseAlternateNetwork == networkType {
		return c
	}

	dup := *c
	dup.UseAlternateNetwork = networkType
	return &dup
}
