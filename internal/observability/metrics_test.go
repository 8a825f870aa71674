package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Analytics.RecordSourceSelection("fallback")
	m.Analytics.RecordFeedFetch(metrics.LabelUnavailable)
	m.Analytics.RecordSkippedRecords("store", 2)
	m.Analytics.RecordSkippedRecords("store", 0)
	m.Datastore.ObserveOperation(metrics.OpDbQuery, "sightings", 0.002, "")
	m.Events.RecordOperation("mqtt", metrics.StatusSuccess)
	m.HTTP.RecordHTTPRequest(http.MethodGet, "/api/v1/analytics", "200", 0.01, 512)

	count, err := testutil.GatherAndCount(m.Registry(),
		"analytics_source_selections_total",
		"analytics_feed_fetches_total",
		"analytics_skipped_records_total",
		"datastore_operations_total",
		"events_publish_total",
		"http_requests_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestRegisterEBirdReadsAtScrape(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	calls := int64(0)
	require.NoError(t, m.RegisterEBird(func() metrics.EBirdStats {
		return metrics.EBirdStats{APICalls: calls}
	}))

	calls = 7
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ebird_api_calls_total 7")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
