package metrics

import "github.com/prometheus/client_golang/prometheus"

// DatastoreMetrics counts species, sighting and hotspot queries by
// operation and table.
type DatastoreMetrics struct {
	collectorSet

	operations *prometheus.CounterVec
	errs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.HistogramVec
}

func NewDatastoreMetrics(registry prometheus.Registerer) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datastore_operations_total",
			Help: "Datastore operations by outcome",
		}, []string{"operation", "table", "status"}),
		errs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datastore_operation_errors_total",
			Help: "Failed datastore operations by error category",
		}, []string{"operation", "table", "error_type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datastore_operation_duration_seconds",
			Help:    "Datastore operation latency",
			Buckets: latencyBuckets,
		}, []string{"operation", "table"}),
		rows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datastore_rows_returned",
			Help:    "Rows returned per read",
			Buckets: rowBuckets,
		}, []string{"operation", "table"}),
	}
	m.collectorSet = collectorSet{m.operations, m.errs, m.duration, m.rows}
	return register(registry, m)
}

// ObserveOperation records one finished operation. An empty errorType
// marks success.
func (m *DatastoreMetrics) ObserveOperation(operation, table string, seconds float64, errorType string) {
	status := StatusSuccess
	if errorType != "" {
		status = StatusError
		m.errs.WithLabelValues(operation, table, errorType).Inc()
	}
	m.operations.WithLabelValues(operation, table, status).Inc()
	m.duration.WithLabelValues(operation, table).Observe(seconds)
}

// ObserveRows records how many rows a read returned.
func (m *DatastoreMetrics) ObserveRows(operation, table string, n int) {
	m.rows.WithLabelValues(operation, table).Observe(float64(n))
}
