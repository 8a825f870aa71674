package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EBirdStats is a snapshot of the eBird client's internal counters.
type EBirdStats struct {
	APICalls    int64
	CacheHits   int64
	CacheMisses int64
	APIErrors   int64
}

// EBirdMetrics exposes the eBird client's counters. Values are read from
// the client at scrape time.
type EBirdMetrics struct {
	stats func() EBirdStats

	apiCalls    *prometheus.Desc
	cacheHits   *prometheus.Desc
	cacheMisses *prometheus.Desc
	apiErrors   *prometheus.Desc
}

// NewEBirdMetrics registers collectors that read counters from stats.
func NewEBirdMetrics(registry prometheus.Registerer, stats func() EBirdStats) (*EBirdMetrics, error) {
	m := &EBirdMetrics{
		stats:       stats,
		apiCalls:    prometheus.NewDesc("ebird_api_calls_total", "Requests sent to the eBird API", nil, nil),
		cacheHits:   prometheus.NewDesc("ebird_cache_hits_total", "eBird responses served from cache", nil, nil),
		cacheMisses: prometheus.NewDesc("ebird_cache_misses_total", "eBird lookups not found in cache", nil, nil),
		apiErrors:   prometheus.NewDesc("ebird_api_errors_total", "Failed eBird API requests", nil, nil),
	}
	return register(registry, m)
}

// Describe implements the Collector interface
func (m *EBirdMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.apiCalls
	ch <- m.cacheHits
	ch <- m.cacheMisses
	ch <- m.apiErrors
}

// Collect implements the Collector interface
func (m *EBirdMetrics) Collect(ch chan<- prometheus.Metric) {
	s := m.stats()
	ch <- prometheus.MustNewConstMetric(m.apiCalls, prometheus.CounterValue, float64(s.APICalls))
	ch <- prometheus.MustNewConstMetric(m.cacheHits, prometheus.CounterValue, float64(s.CacheHits))
	ch <- prometheus.MustNewConstMetric(m.cacheMisses, prometheus.CounterValue, float64(s.CacheMisses))
	ch <- prometheus.MustNewConstMetric(m.apiErrors, prometheus.CounterValue, float64(s.APIErrors))
}
