// Package metrics defines the Prometheus collectors of the sanctuary
// service, one struct per subsystem.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values shared across subsystems.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	LabelHit  = "hit"
	LabelMiss = "miss"

	// Feed outcomes. Every failure mode counts as unavailable.
	LabelSuccess     = "success"
	LabelUnavailable = "unavailable"
)

// Datastore operation labels.
const (
	OpDbQuery  = "db_query"
	OpDbInsert = "db_insert"
	OpDbUpdate = "db_update"
	OpSearch   = "search"
	OpSeed     = "seed"
)

var (
	// 1ms doubling to ~16s
	latencyBuckets = prometheus.ExponentialBuckets(0.001, 2, 15)
	// 1ms doubling to ~0.5s; broker round trips are short
	publishBuckets = prometheus.ExponentialBuckets(0.001, 2, 10)
	// 64B doubling to 128KiB
	sizeBuckets = prometheus.ExponentialBuckets(64, 2, 12)
	// 1 row doubling to 16k rows
	rowBuckets = prometheus.ExponentialBuckets(1, 2, 15)
)

// collectorSet lets a subsystem struct register as a single collector.
type collectorSet []prometheus.Collector

func (cs collectorSet) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range cs {
		c.Describe(ch)
	}
}

func (cs collectorSet) Collect(ch chan<- prometheus.Metric) {
	for _, c := range cs {
		c.Collect(ch)
	}
}

func register[T prometheus.Collector](registry prometheus.Registerer, m T) (T, error) {
	if err := registry.Register(m); err != nil {
		var zero T
		return zero, err
	}
	return m, nil
}

// Recorder is the narrow view of a subsystem's metrics handed to
// components that only count operations.
type Recorder interface {
	RecordOperation(operation, status string)
	RecordDuration(operation string, seconds float64)
	RecordError(operation, errorType string)
}

// NoOpRecorder discards everything.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordOperation(string, string) {}
func (NoOpRecorder) RecordDuration(string, float64) {}
func (NoOpRecorder) RecordError(string, string)     {}
