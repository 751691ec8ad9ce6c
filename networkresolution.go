package gocbcfg

import (
	"net"
	"strings"
)

// NetworkResolution selects which address set of a bucket configuration the
// client should use to reach the cluster.
type NetworkResolution string

const (
	// NetworkResolutionAuto matches the configured seed hosts against the
	// addresses advertised by the config to decide which network to use.
	NetworkResolutionAuto = NetworkResolution("auto")

	// NetworkResolutionDefault forces the default (internal) addresses.
	NetworkResolutionDefault = NetworkResolution("default")

	// NetworkResolutionExternal forces the "external" alternate addresses
	// whenever any node advertises them.
	NetworkResolutionExternal = NetworkResolution("external")
)

// NetworkExternal is the conventional name of the alternate address set
// advertised for clients outside a NAT or ingress boundary.
const NetworkExternal = "external"

type networkResolver struct {
	resolution NetworkResolution
}

// resolve decides the alternate network name for the config, or an empty
// string for the default addresses. The seeds are only consulted in auto
// mode.
func (r networkResolver) resolve(config *BucketConfig, seeds []string) string {
	switch r.resolution {
	case NetworkResolutionDefault, NetworkResolution(""):
		return ""
	case NetworkResolutionAuto:
		return r.identify(config, seeds)
	case NetworkResolutionExternal:
		return r.pickNamed(config, NetworkExternal)
	default:
		return r.pickNamed(config, string(r.resolution))
	}
}

// pickNamed selects the named network if any node advertises it.
func (r networkResolver) pickNamed(config *BucketConfig, networkType string) string {
	for _, node := range config.Nodes {
		if _, ok := node.AltAddresses[networkType]; ok {
			return networkType
		}
	}
	return ""
}

// identify matches the seed hosts against the config. Default addresses are
// checked first in case they overlap with an alternate set, so a client
// co-located with the cluster keeps using internal addresses.
func (r networkResolver) identify(config *BucketConfig, seeds []string) string {
	for _, seed := range seeds {
		seedHost := hostFromSeed(seed)

		for _, node := range config.Nodes {
			if node.Address() == seedHost {
				return ""
			}
		}

		for _, node := range config.Nodes {
			for networkType, altAddrs := range node.AltAddresses {
				if altAddrs.Address() == seedHost {
					return networkType
				}
			}
		}
	}

	// no seed matched anything we know, default to the default network
	return ""
}

func hostFromSeed(seed string) string {
	if host, _, err := net.SplitHostPort(seed); err == nil {
		return unwrapIPv6(host)
	}
	return unwrapIPv6(strings.TrimSpace(seed))
}
