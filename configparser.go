package gocbcfg

import (
	"net"
	"strings"

	"github.com/couchbaselabs/gocbcfg/contrib/cbconfig"
)

func parseConfigHostname(hostname string, sourceHostname string) string {
	if hostname == "" {
		// if no hostname is provided, we want to be using the source one
		return sourceHostname
	}

	// legacy payloads encode the hostname with the management port attached
	if strings.Count(hostname, ":") == 1 {
		if host, _, err := net.SplitHostPort(hostname); err == nil {
			hostname = host
		}
	}

	if hostname == "127.0.0.1" && sourceHostname != "" {
		// the server encodes "this host" as a loopback address, which is only
		// reachable when we know which origin the config came from
		return sourceHostname
	}

	if strings.Contains(hostname, ":") {
		// this appears to be an IPv6 address, wrap it for everyone else
		return "[" + hostname + "]"
	}
	return hostname
}

// ConfigParser turns raw bucket configuration payloads into BucketConfig
// values.
type ConfigParser struct{}

// ParseConfig parses a raw JSON payload into a BucketConfig. The origin is
// the address the payload was received from and is substituted for the $HOST
// placeholder and for loopback hostnames.
func (p ConfigParser) ParseConfig(raw []byte, origin string) (*BucketConfig, error) {
	config, err := cbconfig.ParseTerseConfig(raw, origin)
	if err != nil {
		return nil, invalidConfigError{Reason: err.Error()}
	}

	return p.ParseTerseConfig(config, origin)
}

// ParseTerseConfig builds a BucketConfig from an already unmarshalled terse
// config payload.
func (p ConfigParser) ParseTerseConfig(config *cbconfig.TerseConfigJson, sourceHostname string) (*BucketConfig, error) {
	if config.Name == "" {
		return nil, invalidConfigError{Reason: "config has no bucket name"}
	}
	if len(config.NodesExt) == 0 {
		return nil, invalidConfigError{Reason: "config has no nodes"}
	}

	rev := RevUnversioned
	if config.Rev != nil {
		rev = int64(*config.Rev)
	}

	out := &BucketConfig{
		Name: config.Name,
		UUID: config.UUID,
		Rev:  rev,
	}

	lenNodes := len(config.Nodes)
	out.Nodes = make([]NodeInfo, 0, len(config.NodesExt))
	ringNodes := make([]NodeInfo, 0, lenNodes)
	for nodeIdx, node := range config.NodesExt {
		hostname := parseConfigHostname(node.Hostname, sourceHostname)
		services, sslServices := parseNodePorts(node.Services)

		nodeInfo := NodeInfo{
			Hostname:    hostname,
			RawHostname: node.Hostname,
			Services:    services,
			SSLServices: sslServices,
		}

		nodeInfo.AltAddresses = make(map[string]AlternateAddress)
		for networkType, altAddrs := range node.AltAddresses {
			altHostname := parseConfigHostname(altAddrs.Hostname, hostname)
			altServices, altSSLServices := parseNodePorts(altAddrs.Ports)
			nodeInfo.AltAddresses[networkType] = AlternateAddress{
				Hostname:    altHostname,
				RawHostname: altAddrs.Hostname,
				Services:    altServices,
				SSLServices: altSSLServices,
			}
		}

		out.Nodes = append(out.Nodes, nodeInfo)

		// nodes which only appear in nodesExt are not data nodes yet, this
		// happens while the cluster rebalances them in
		if nodeIdx < lenNodes {
			ringNodes = append(ringNodes, nodeInfo)
		}
	}

	switch config.NodeLocator {
	case "ketama":
		out.Type = BucketTypeMemcached
		out.KetamaRing = NewKetamaRing(ringNodes)
	case "vbucket":
		if config.BucketType == "ephemeral" {
			out.Type = BucketTypeEphemeral
		} else {
			out.Type = BucketTypeCouchbase
		}

		if config.VBucketServerMap != nil && len(config.VBucketServerMap.VBucketMap) > 0 {
			vbMap, err := NewVbucketMap(
				config.VBucketServerMap.VBucketMap,
				config.VBucketServerMap.NumReplicas)
			if err != nil {
				return nil, invalidConfigError{Reason: err.Error()}
			}

			out.VbucketMap = vbMap
		}
	default:
		return nil, invalidConfigError{Reason: "unrecognized node locator " + config.NodeLocator}
	}

	return out, nil
}
