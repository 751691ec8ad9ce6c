package gocbcfg

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/couchbaselabs/gocbcfg")
)

var (
	// acceptedConfigs tracks the number of proposed configurations that were
	// accepted and published.
	acceptedConfigs, _ = meter.Int64Counter("gocbcfg.accepted_configs")

	// ignoredConfigs tracks the number of proposed configurations that were
	// dropped because they were invalid, unversioned, or stale.
	ignoredConfigs, _ = meter.Int64Counter("gocbcfg.ignored_configs")

	// bootstrapAttempts tracks the number of per-seed loader attempts made
	// while opening buckets.
	bootstrapAttempts, _ = meter.Int64Counter("gocbcfg.bootstrap_attempts",
		metric.WithDescription("per-seed loader attempts during bucket bootstrap"))
)
