package gocbcfg

// ServiceType specifies a particular Couchbase service type.
type ServiceType int

const (
	// ServiceTypeMemd represents the memcached binary key-value service.
	ServiceTypeMemd = ServiceType(1)

	// ServiceTypeMgmt represents a management service (typically ns_server).
	ServiceTypeMgmt = ServiceType(2)

	// ServiceTypeViews represents a views service (typically capi).
	ServiceTypeViews = ServiceType(3)

	// ServiceTypeQuery represents a N1QL service (typically for query).
	ServiceTypeQuery = ServiceType(4)

	// ServiceTypeSearch represents a full-text-search service.
	ServiceTypeSearch = ServiceType(5)

	// ServiceTypeAnalytics represents an analytics service.
	ServiceTypeAnalytics = ServiceType(6)
)

func (t ServiceType) String() string {
	switch t {
	case ServiceTypeMemd:
		return "memd"
	case ServiceTypeMgmt:
		return "mgmt"
	case ServiceTypeViews:
		return "views"
	case ServiceTypeQuery:
		return "query"
	case ServiceTypeSearch:
		return "search"
	case ServiceTypeAnalytics:
		return "analytics"
	}
	return "unknown"
}
