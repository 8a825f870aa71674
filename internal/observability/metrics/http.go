package metrics

import "github.com/prometheus/client_golang/prometheus"

// HTTPMetrics covers the REST API. The path label is the route pattern,
// for example /api/v1/species/:id, so cardinality stays bounded.
type HTTPMetrics struct {
	collectorSet

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	size     *prometheus.HistogramVec
}

func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "API requests by route and status code",
		}, []string{"method", "path", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "API response body size",
			Buckets: sizeBuckets,
		}, []string{"method", "path"}),
	}
	m.collectorSet = collectorSet{m.requests, m.latency, m.size}
	return register(registry, m)
}

// RecordHTTPRequest records one served request. Empty bodies are not
// added to the size histogram.
func (m *HTTPMetrics) RecordHTTPRequest(method, path, statusCode string, duration float64, size int64) {
	m.requests.WithLabelValues(method, path, statusCode).Inc()
	m.latency.WithLabelValues(method, path).Observe(duration)
	if size > 0 {
		m.size.WithLabelValues(method, path).Observe(float64(size))
	}
}
