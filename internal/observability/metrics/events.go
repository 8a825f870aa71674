package metrics

import "github.com/prometheus/client_golang/prometheus"

// EventMetrics covers the MQTT and Kafka sighting publishers. It satisfies
// Recorder with the publisher name as the operation.
type EventMetrics struct {
	collectorSet

	published *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	connected *prometheus.GaugeVec
}

func NewEventMetrics(registry prometheus.Registerer) (*EventMetrics, error) {
	m := &EventMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_publish_total",
			Help: "Sighting events handed to a broker, by outcome",
		}, []string{"publisher", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "events_publish_latency_seconds",
			Help:    "Broker publish latency",
			Buckets: publishBuckets,
		}, []string{"publisher"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Failed publishes by error category",
		}, []string{"publisher", "error_type"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "events_connection_status",
			Help: "1 while the publisher holds a broker connection",
		}, []string{"publisher"}),
	}
	m.collectorSet = collectorSet{m.published, m.latency, m.failures, m.connected}
	return register(registry, m)
}

func (m *EventMetrics) RecordOperation(publisher, status string) {
	m.published.WithLabelValues(publisher, status).Inc()
}

func (m *EventMetrics) RecordDuration(publisher string, seconds float64) {
	m.latency.WithLabelValues(publisher).Observe(seconds)
}

func (m *EventMetrics) RecordError(publisher, errorType string) {
	m.failures.WithLabelValues(publisher, errorType).Inc()
}

func (m *EventMetrics) UpdateConnectionStatus(publisher string, connected bool) {
	var v float64
	if connected {
		v = 1
	}
	m.connected.WithLabelValues(publisher).Set(v)
}
