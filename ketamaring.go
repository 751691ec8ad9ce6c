package gocbcfg

import (
	"crypto/md5"
	"fmt"

	"slices"
)

const (
	ketamaRepetitions   = 40
	ketamaPointsPerHash = 4
)

// KetamaRingEntry is a single point on the continuum together with the node
// that owns it.
type KetamaRingEntry struct {
	Point uint64
	Node  NodeInfo
}

// KetamaRing is the consistent-hashing continuum used to locate keys on
// memcached-type buckets. Only nodes advertising the binary key-value
// service contribute points to the ring.
type KetamaRing struct {
	entries []KetamaRingEntry
}

// NewKetamaRing builds the continuum for the given candidate nodes. Each
// eligible node contributes 160 points, derived from 40 md5 digests of
// "<address>-<repetition>" with 4 points each.
func NewKetamaRing(nodes []NodeInfo) *KetamaRing {
	var entries []KetamaRingEntry
	for _, node := range nodes {
		if _, ok := node.Services[ServiceTypeMemd]; !ok {
			continue
		}

		for rep := 0; rep < ketamaRepetitions; rep++ {
			digest := md5.Sum([]byte(fmt.Sprintf("%s-%d", node.Address(), rep)))

			for h := 0; h < ketamaPointsPerHash; h++ {
				point := uint64(digest[3+h*4])<<24 |
					uint64(digest[2+h*4])<<16 |
					uint64(digest[1+h*4])<<8 |
					uint64(digest[h*4])
				entries = append(entries, KetamaRingEntry{
					Point: point,
					Node:  node,
				})
			}
		}
	}

	slices.SortFunc(entries, func(a, b KetamaRingEntry) int {
		if a.Point < b.Point {
			return -1
		} else if a.Point > b.Point {
			return +1
		}
		return 0
	})

	return &KetamaRing{
		entries: entries,
	}
}

// IsValid indicates whether the ring has at least one point.
func (r *KetamaRing) IsValid() bool {
	return len(r.entries) > 0
}

// NumPoints returns the total number of points on the ring.
func (r *KetamaRing) NumPoints() int {
	return len(r.entries)
}

// Entries returns a copy of the continuum in point order.
func (r *KetamaRing) Entries() []KetamaRingEntry {
	return slices.Clone(r.entries)
}

// NodeByKey locates the node owning the given key.
func (r *KetamaRing) NodeByKey(key []byte) (NodeInfo, error) {
	if len(r.entries) == 0 {
		return NodeInfo{}, invalidConfigError{Reason: "ketama ring has no nodes"}
	}

	hash := ketamaHash(key)
	idx, _ := slices.BinarySearchFunc(r.entries, hash, func(entry KetamaRingEntry, target uint64) int {
		if entry.Point < target {
			return -1
		} else if entry.Point > target {
			return +1
		}
		return 0
	})
	if idx == len(r.entries) {
		// wrap around to the start of the continuum
		idx = 0
	}

	return r.entries[idx].Node, nil
}

func ketamaHash(key []byte) uint64 {
	digest := md5.Sum(key)
	return uint64(digest[3])<<24 |
		uint64(digest[2])<<16 |
		uint64(digest[1])<<8 |
		uint64(digest[0])
}
