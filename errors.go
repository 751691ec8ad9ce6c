package gocbcfg

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidConfig indicates a configuration payload which could not be
	// parsed or was missing required fields.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrNoSeedHosts indicates that no seed hosts were configured before a
	// bucket was opened.
	ErrNoSeedHosts = errors.New("no seed hosts configured")

	// ErrNoRefresher indicates that a loader produced a config but no
	// refresher was registered for its loader type.
	ErrNoRefresher = errors.New("no refresher registered for loader type")

	// ErrProviderClosed indicates the provider has been shut down.
	ErrProviderClosed = errors.New("configuration provider closed")
)

const couldNotOpenBucketMsg = "Could not open bucket."

// ConfigurationError is the public error surface of bucket bootstrap
// failures.
type ConfigurationError struct {
	Message string
	Inner   error
}

func (e ConfigurationError) Error() string {
	return e.Message
}

func (e ConfigurationError) Unwrap() error {
	return e.Inner
}

func newOpenBucketError(inner error) ConfigurationError {
	return ConfigurationError{
		Message: couldNotOpenBucketMsg,
		Inner:   inner,
	}
}

type invalidConfigError struct {
	Reason string
}

func (e invalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Reason)
}

func (e invalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// BootstrapAllFailedError is returned when every loader failed against every
// seed, aggregating the per-seed attempt errors.
type BootstrapAllFailedError struct {
	Errors map[string]error
}

func (e BootstrapAllFailedError) Error() string {
	seeds := make([]string, 0, len(e.Errors))
	for seed := range e.Errors {
		seeds = append(seeds, seed)
	}
	sort.Strings(seeds)

	parts := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		parts = append(parts, fmt.Sprintf("%s: {%s}", seed, e.Errors[seed].Error()))
	}
	return "all bootstrap attempts failed: " + strings.Join(parts, ", ")
}

type noRefresherError struct {
	LoaderType LoaderType
}

func (e noRefresherError) Error() string {
	return fmt.Sprintf("no refresher registered for loader type %s", e.LoaderType)
}

func (e noRefresherError) Unwrap() error {
	return ErrNoRefresher
}

type invalidVbucketError struct {
	RequestedVbId uint16
	NumVbuckets   uint16
}

func (e invalidVbucketError) Error() string {
	return fmt.Sprintf("invalid vbucket requested (%d >= %d)", e.RequestedVbId, e.NumVbuckets)
}

type invalidReplicaError struct {
	RequestedReplica uint32
	NumServers       uint32
}

func (e invalidReplicaError) Error() string {
	return fmt.Sprintf("invalid replica requested (%d >= %d)", e.RequestedReplica, e.NumServers)
}
