package gocbcfg

import (
	"strings"

	"github.com/couchbaselabs/gocbcfg/contrib/cbconfig"
)

// AlternateAddress describes one alternate address set advertised by a node,
// keyed in NodeInfo.AltAddresses by the network name it belongs to.
type AlternateAddress struct {
	Hostname    string
	RawHostname string
	Services    map[ServiceType]int
	SSLServices map[ServiceType]int
}

// NodeInfo describes a single node of the cluster as seen by one bucket
// configuration. Service maps only ever contain ports greater than zero.
type NodeInfo struct {
	Hostname     string
	RawHostname  string
	Services     map[ServiceType]int
	SSLServices  map[ServiceType]int
	AltAddresses map[string]AlternateAddress
}

// Address returns the hostname without any IPv6 wrapping, suitable for
// comparing against addresses the application knows the node by.
func (n NodeInfo) Address() string {
	return unwrapIPv6(n.Hostname)
}

// HasService indicates whether the node advertises the service on either the
// plain or the TLS port set.
func (n NodeInfo) HasService(service ServiceType) bool {
	_, ok := n.Services[service]
	if ok {
		return true
	}
	_, ok = n.SSLServices[service]
	return ok
}

// Address returns the hostname without any IPv6 wrapping.
func (a AlternateAddress) Address() string {
	return unwrapIPv6(a.Hostname)
}

func unwrapIPv6(hostname string) string {
	if strings.HasPrefix(hostname, "[") && strings.HasSuffix(hostname, "]") {
		return hostname[1 : len(hostname)-1]
	}
	return hostname
}

func parseNodePorts(ports *cbconfig.TerseExtNodePortsJson) (map[ServiceType]int, map[ServiceType]int) {
	services := make(map[ServiceType]int)
	sslServices := make(map[ServiceType]int)
	if ports == nil {
		return services, sslServices
	}

	putPort := func(m map[ServiceType]int, service ServiceType, port uint16) {
		if port > 0 {
			m[service] = int(port)
		}
	}

	putPort(services, ServiceTypeMemd, ports.Kv)
	putPort(services, ServiceTypeMgmt, ports.Mgmt)
	putPort(services, ServiceTypeViews, ports.Capi)
	putPort(services, ServiceTypeQuery, ports.N1ql)
	putPort(services, ServiceTypeSearch, ports.Fts)
	putPort(services, ServiceTypeAnalytics, ports.Cbas)

	putPort(sslServices, ServiceTypeMemd, ports.KvSsl)
	putPort(sslServices, ServiceTypeMgmt, ports.MgmtSsl)
	putPort(sslServices, ServiceTypeViews, ports.CapiSsl)
	putPort(sslServices, ServiceTypeQuery, ports.N1qlSsl)
	putPort(sslServices, ServiceTypeSearch, ports.FtsSsl)
	putPort(sslServices, ServiceTypeAnalytics, ports.CbasSsl)

	return services, sslServices
}
