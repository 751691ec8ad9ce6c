package gocbcfg

import (
	"fmt"

	"github.com/couchbaselabs/gocbconnstr/v2"
)

// SeedsFromConnStr resolves a connection string into the seed addresses to
// pass to ConfigurationProvider.SeedHosts. Carrier-capable addresses are
// preferred; http addresses are used when the connection string only names
// those.
func SeedsFromConnStr(connStr string) ([]string, error) {
	baseSpec, err := gocbconnstr.Parse(connStr)
	if err != nil {
		return nil, err
	}

	spec, err := gocbconnstr.Resolve(baseSpec)
	if err != nil {
		return nil, err
	}

	var seeds []string
	for _, specHost := range spec.MemdHosts {
		seeds = append(seeds, fmt.Sprintf("%s:%d", specHost.Host, specHost.Port))
	}
	if len(seeds) == 0 {
		for _, specHost := range spec.HttpHosts {
			seeds = append(seeds, fmt.Sprintf("%s:%d", specHost.Host, specHost.Port))
		}
	}

	if len(seeds) == 0 {
		return nil, ErrNoSeedHosts
	}

	return seeds, nil
}
