package dashboard

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/datastore"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/events"
	"github.com/vedanthangal/sanctuary/internal/feed"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache stops its janitor from a finalizer
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

var testNow = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu         sync.Mutex
	records    []analytics.SightingRecord
	species    []analytics.Species
	listErr    error
	createErr  error
	listCalls  int
	created    []analytics.SightingRecord
	seeded     []datastore.SeedData
	listCalled chan struct{}
}

func (f *fakeStore) ListSightingsBetween(_ context.Context, from, to time.Time) ([]analytics.SightingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listCalled != nil {
		close(f.listCalled)
		f.listCalled = nil
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []analytics.SightingRecord
	for _, r := range f.records {
		if !r.ObservedAt.Before(from) && r.ObservedAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSpecies(context.Context) ([]analytics.Species, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]analytics.Species(nil), f.species...), nil
}

func (f *fakeStore) CreateSighting(_ context.Context, record *analytics.SightingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	record.ID = "created-1"
	f.records = append(f.records, *record)
	f.created = append(f.created, *record)
	return nil
}

func (f *fakeStore) Seed(_ context.Context, data datastore.SeedData) (datastore.SeedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeded = append(f.seeded, data)
	return datastore.SeedResult{
		SpeciesCreated:   len(data.Species),
		SightingsCreated: len(data.Sightings),
		HotspotsCreated:  len(data.Hotspots),
	}, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeFeed struct {
	result  feed.Result
	notable []analytics.SightingRecord
	// waitFor blocks Fetch until closed or the context ends
	waitFor <-chan struct{}
	sawWait bool
}

func (f *fakeFeed) Fetch(ctx context.Context, _ int) feed.Result {
	if f.waitFor != nil {
		select {
		case <-f.waitFor:
			f.sawWait = true
		case <-ctx.Done():
			return feed.Unavailable{Reason: ctx.Err()}
		case <-time.After(time.Second):
		}
	}
	if f.result == nil {
		return feed.Unavailable{Reason: errors.NewStd("not configured")}
	}
	return f.result
}

func (f *fakeFeed) Notable(context.Context) []analytics.SightingRecord {
	return f.notable
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.SightingCreated
	err    error
}

func (p *recordingPublisher) Name() string { return "recording" }

func (p *recordingPublisher) Publish(_ context.Context, e events.SightingCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type recordingMetrics struct {
	mu      sync.Mutex
	sources []string
	fetches []string
	cache   []string
	skipped int
}

func (m *recordingMetrics) RecordFeedFetch(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, outcome)
}

func (m *recordingMetrics) RecordSourceSelection(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

func (m *recordingMetrics) RecordSkippedRecords(_ string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped += n
}

func (m *recordingMetrics) RecordAggregationDuration(string, float64) {}

func (m *recordingMetrics) RecordCacheOperation(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = append(m.cache, result)
}

func testFallback(t *testing.T) *feed.Fallback {
	t.Helper()
	fb, err := feed.DefaultFallback()
	require.NoError(t, err)
	return fb
}

func newTestService(t *testing.T, store Store, source Feed, config Config, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithClock(clockwork.NewFakeClockAt(testNow)),
		WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)),
	}, opts...)
	return New(store, source, testFallback(t), config, opts...)
}

func at(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 7, 0, 0, 0, time.UTC)
}

func TestGetAnalyticsPrefersStore(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		species: []analytics.Species{
			{ID: "sp-heron", CommonName: "Gray Heron", PresenceStatus: analytics.StatusResident},
			{ID: "sp-pelican", CommonName: "Spot-billed Pelican", PresenceStatus: analytics.StatusRare},
		},
		records: []analytics.SightingRecord{
			{ID: "1", SpeciesRef: "sp-heron", ObservedAt: at(time.January, 3)},
			{ID: "2", SpeciesRef: "sp-heron", ObservedAt: at(time.February, 9)},
			{ID: "3", SpeciesRef: "sp-pelican", ObservedAt: at(time.December, 24)},
			{ID: "4", ObservedAt: at(time.March, 1)},
			{ID: "5", SpeciesRef: "sp-heron", ObservedAt: time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)},
		},
	}
	liveFeed := &fakeFeed{result: feed.Success{Records: []analytics.SightingRecord{
		{ID: "ebird-1", CommonName: "Little Egret", ObservedAt: at(time.January, 5)},
	}}}
	m := &recordingMetrics{}
	svc := newTestService(t, store, liveFeed, Config{TopN: 5}, WithMetrics(m))

	result, err := svc.GetAnalytics(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, feed.SourceStore, result.Source)
	assert.Empty(t, result.DatasetVersion)
	assert.Equal(t, 4, result.TotalSightings)
	assert.Equal(t, 2, result.TotalSpecies)
	assert.Equal(t, [12]int{1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1}, result.Timeline.Monthly)
	assert.Equal(t, 3, result.Seasonal.Get(analytics.SeasonWinter))
	assert.Equal(t, result.Timeline.Total, result.Seasonal.Total())

	require.Len(t, result.TopSpecies, 2)
	assert.Equal(t, "Gray Heron", result.TopSpecies[0].Name)
	require.Len(t, result.RareSpecies, 1)
	assert.Equal(t, "Spot-billed Pelican", result.RareSpecies[0].Name)
	assert.Equal(t, analytics.StatusDistribution{Resident: 2, Rare: 1}, result.StatusDistribution)

	assert.Equal(t, []string{feed.SourceStore}, m.sources)
	assert.Equal(t, []string{"success"}, m.fetches)
}

func TestGetAnalyticsUsesFeedWhenStoreEmpty(t *testing.T) {
	t.Parallel()

	store := &fakeStore{species: []analytics.Species{
		{ID: "sp-stork", CommonName: "Painted Stork", PresenceStatus: analytics.StatusRare},
	}}
	liveFeed := &fakeFeed{result: feed.Success{Records: []analytics.SightingRecord{
		{ID: "ebird-1", CommonName: "painted stork", ObservedAt: at(time.February, 2)},
		{ID: "ebird-2", CommonName: "Little Egret", ObservedAt: at(time.February, 3)},
		{ID: "ebird-3", CommonName: "Little Egret", ObservedAt: at(time.November, 4)},
		{ID: "ebird-4", CommonName: "Little Egret"},
	}}}
	svc := newTestService(t, store, liveFeed, Config{})

	result, err := svc.GetAnalytics(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, feed.SourceEBird, result.Source)
	assert.Equal(t, 3, result.TotalSightings)
	assert.Equal(t, 1, result.SkippedRecords)
	assert.Equal(t, "Little Egret", result.TopSpecies[0].Name)
	require.Len(t, result.RareSpecies, 1)
	assert.Equal(t, "Painted Stork", result.RareSpecies[0].Name, "feed names resolve against the store catalog")
}

func TestGetAnalyticsFallsBackWhenFeedUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"empty store", &fakeStore{}},
		{"failing store", &fakeStore{listErr: errors.NewStd("database is locked")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t, tt.store, &fakeFeed{}, Config{TopN: 5})

			result, err := svc.GetAnalytics(context.Background(), 2025)
			require.NoError(t, err)

			assert.Equal(t, feed.SourceFallback, result.Source)
			assert.Equal(t, "vedanthangal-2025.1", result.DatasetVersion)
			assert.Equal(t, 3576, result.TotalSightings)
			assert.Equal(t, result.Timeline.Total, result.Seasonal.Total())
			assert.Equal(t, result.Timeline.Total, result.TotalSightings)
			assert.Equal(t, [12]int{233, 1837, 587, 0, 141, 0, 0, 0, 0, 42, 736, 0}, result.Timeline.Monthly)
			require.Len(t, result.TopSpecies, 5)
			assert.Equal(t, "Black-headed Ibis", result.TopSpecies[0].Name)
			assert.Equal(t, "Spot-billed Pelican", result.RareSpecies[0].Name)
			assert.Zero(t, result.SkippedRecords)
		})
	}
}

func TestGetAnalyticsFetchesConcurrently(t *testing.T) {
	t.Parallel()

	listCalled := make(chan struct{})
	store := &fakeStore{listCalled: listCalled}
	liveFeed := &fakeFeed{result: feed.Success{}, waitFor: listCalled}
	svc := newTestService(t, store, liveFeed, Config{})

	result, err := svc.GetAnalytics(context.Background(), 2025)
	require.NoError(t, err)
	assert.True(t, liveFeed.sawWait, "feed fetch should overlap the store query")
	assert.Equal(t, feed.SourceEBird, result.Source)
	assert.Zero(t, result.TotalSightings)
}

func TestGetAnalyticsRejectsInvalidYear(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := newTestService(t, store, &fakeFeed{}, Config{})

	for _, year := range []int{1899, 2027} {
		_, err := svc.GetAnalytics(context.Background(), year)
		require.Error(t, err, "year %d", year)
		assert.True(t, errors.IsValidation(err))
	}
	assert.Zero(t, store.calls())

	_, err := svc.GetAnalytics(context.Background(), 2026)
	assert.NoError(t, err, "next year is accepted")
}

func TestGetAnalyticsCancelled(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeStore{}, &fakeFeed{}, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetAnalytics(ctx, 2025)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

func TestGetTimeline(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeStore{}, &fakeFeed{}, Config{})
	timeline, err := svc.GetTimeline(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, timeline.Year)
	assert.Equal(t, 3576, timeline.Total)
}

func TestResponseCache(t *testing.T) {
	t.Parallel()

	store := &fakeStore{species: []analytics.Species{{ID: "sp-heron", CommonName: "Gray Heron"}}}
	publisher := &recordingPublisher{}
	m := &recordingMetrics{}
	svc := newTestService(t, store, &fakeFeed{}, Config{CacheTTL: time.Minute},
		WithPublisher(publisher), WithMetrics(m))
	ctx := context.Background()

	first, err := svc.GetAnalytics(ctx, 2025)
	require.NoError(t, err)
	second, err := svc.GetAnalytics(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls())
	assert.Equal(t, []string{"miss", "hit"}, m.cache)

	record := &analytics.SightingRecord{SpeciesRef: "sp-heron", ObservedAt: at(time.March, 8), UserID: "u-1"}
	require.NoError(t, svc.CreateSighting(ctx, record))

	third, err := svc.GetAnalytics(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls(), "a new sighting invalidates cached analytics")
	assert.Equal(t, feed.SourceStore, third.Source)
	assert.Equal(t, 1, third.TotalSightings)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "created-1", publisher.events[0].Sighting.ID)
	assert.Equal(t, testNow, publisher.events[0].OccurredAt)
}

func TestCachedAnalyticsAreNotShared(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeStore{}, &fakeFeed{}, Config{TopN: 5, CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := svc.GetAnalytics(ctx, 2025)
	require.NoError(t, err)
	require.NotEmpty(t, first.TopSpecies)
	require.NotEmpty(t, first.RareSpecies)
	want := first.TopSpecies[0].Name
	first.TopSpecies[0].Name = "changed"
	first.RareSpecies[0].Count = -1

	second, err := svc.GetAnalytics(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, want, second.TopSpecies[0].Name)
	assert.Positive(t, second.RareSpecies[0].Count)
	second.TopSpecies[0].Name = "changed again"

	third, err := svc.GetAnalytics(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, want, third.TopSpecies[0].Name)
}

func TestNilFallbackIsEmpty(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := New(store, &fakeFeed{}, nil, Config{}, WithClock(clockwork.NewFakeClockAt(testNow)))

	result, err := svc.GetAnalytics(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, feed.SourceFallback, result.Source)
	assert.Zero(t, result.TotalSightings)
	assert.Empty(t, result.DatasetVersion)

	seeded, err := svc.SeedDemo(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seeded.SpeciesCreated)
	assert.Equal(t, 3, seeded.SightingsCreated)
}

func TestCreateSightingPublishFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	publisher := &recordingPublisher{err: errors.NewStd("broker down")}
	svc := newTestService(t, store, &fakeFeed{}, Config{}, WithPublisher(publisher))

	err := svc.CreateSighting(context.Background(), &analytics.SightingRecord{ObservedAt: at(time.May, 1)})
	require.NoError(t, err, "publishing is best effort")
	assert.Len(t, store.created, 1)
	assert.Len(t, publisher.events, 1)
}

func TestCreateSightingStoreFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{createErr: errors.ValidationError("observedAt is required")}
	publisher := &recordingPublisher{}
	svc := newTestService(t, store, &fakeFeed{}, Config{}, WithPublisher(publisher))

	err := svc.CreateSighting(context.Background(), &analytics.SightingRecord{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, publisher.events)
}

func TestSeedDemo(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := newTestService(t, store, &fakeFeed{}, Config{})

	result, err := svc.SeedDemo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 33, result.SpeciesCreated)
	assert.Equal(t, 3, result.SightingsCreated)
	assert.Equal(t, 1, result.HotspotsCreated)

	require.Len(t, store.seeded, 1)
	data := store.seeded[0]
	assert.Equal(t, testNow, data.Sightings[0].ObservedAt)
	assert.Equal(t, "L1076228", data.Hotspots[0].EBirdID)
}

func TestMigrationStatus(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.November, 30, 20, 0, 0, 0, time.UTC))
	svc := newTestService(t, &fakeStore{}, &fakeFeed{}, Config{Location: ist}, WithClock(clock))

	status := svc.MigrationStatus()
	assert.Equal(t, "December", status.Month, "the sanctuary's local month decides")
	assert.Equal(t, analytics.SeasonWinter, status.Season)
	assert.Equal(t, "Winter Migration Peak", status.Status)

	clock.Advance(100 * 24 * time.Hour)
	assert.Equal(t, analytics.SeasonSummer, svc.MigrationStatus().Season)
}

func TestCurrentYear(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.December, 31, 19, 0, 0, 0, time.UTC))

	assert.Equal(t, 2026, newTestService(t, &fakeStore{}, &fakeFeed{}, Config{Location: ist}, WithClock(clock)).CurrentYear())
	assert.Equal(t, 2025, newTestService(t, &fakeStore{}, &fakeFeed{}, Config{}, WithClock(clock)).CurrentYear())
}

func TestNotable(t *testing.T) {
	t.Parallel()

	notable := []analytics.SightingRecord{{ID: "ebird-n-1", CommonName: "Greater Flamingo"}}
	svc := newTestService(t, &fakeStore{}, &fakeFeed{notable: notable}, Config{})
	assert.Equal(t, notable, svc.Notable(context.Background()))
}
