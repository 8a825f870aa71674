// Package observability provides Prometheus metrics for the sanctuary service.
// Sentry error telemetry is handled in the telemetry package.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Datastore *metrics.DatastoreMetrics
	Analytics *metrics.AnalyticsMetrics
	HTTP      *metrics.HTTPMetrics
	Events    *metrics.EventMetrics
}

// NewMetrics creates a new instance of Metrics on a fresh registry.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore metrics: %w", err)
	}

	analyticsMetrics, err := metrics.NewAnalyticsMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Analytics metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	eventMetrics, err := metrics.NewEventMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Event metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Datastore: datastoreMetrics,
		Analytics: analyticsMetrics,
		HTTP:      httpMetrics,
		Events:    eventMetrics,
	}, nil
}

// RegisterEBird exposes the eBird client's counters, read at scrape time.
func (m *Metrics) RegisterEBird(stats func() metrics.EBirdStats) error {
	if _, err := metrics.NewEBirdMetrics(m.registry, stats); err != nil {
		return fmt.Errorf("failed to create eBird metrics: %w", err)
	}
	return nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
