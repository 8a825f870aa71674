package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalyticsMetrics tracks dashboard aggregation: which data source each
// response was built from, how the feed behaved and how many records were
// skipped as malformed.
type AnalyticsMetrics struct {
	collectorSet

	feedFetches *prometheus.CounterVec // outcome: success, unavailable
	sources     *prometheus.CounterVec // source: store, ebird, fallback
	skipped     *prometheus.CounterVec
	duration    *prometheus.HistogramVec // view: analytics, timeline
	cache       *prometheus.CounterVec   // result: hit, miss
}

func NewAnalyticsMetrics(registry prometheus.Registerer) (*AnalyticsMetrics, error) {
	m := &AnalyticsMetrics{
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_feed_fetches_total",
			Help: "Observation feed fetches by outcome",
		}, []string{"outcome"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_source_selections_total",
			Help: "Aggregations by the data source they were computed from",
		}, []string{"source"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_skipped_records_total",
			Help: "Malformed sighting records excluded from aggregation",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_aggregation_duration_seconds",
			Help:    "Time taken to fetch and aggregate one dashboard view",
			Buckets: latencyBuckets,
		}, []string{"view"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_cache_operations_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),
	}
	m.collectorSet = collectorSet{m.feedFetches, m.sources, m.skipped, m.duration, m.cache}
	return register(registry, m)
}

func (m *AnalyticsMetrics) RecordFeedFetch(outcome string) {
	m.feedFetches.WithLabelValues(outcome).Inc()
}

func (m *AnalyticsMetrics) RecordSourceSelection(source string) {
	m.sources.WithLabelValues(source).Inc()
}

// RecordSkippedRecords adds n to the source's skipped count; zero is a no-op.
func (m *AnalyticsMetrics) RecordSkippedRecords(source string, n int) {
	if n > 0 {
		m.skipped.WithLabelValues(source).Add(float64(n))
	}
}

func (m *AnalyticsMetrics) RecordAggregationDuration(view string, seconds float64) {
	m.duration.WithLabelValues(view).Observe(seconds)
}

func (m *AnalyticsMetrics) RecordCacheOperation(result string) {
	m.cache.WithLabelValues(result).Inc()
}
