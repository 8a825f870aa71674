package datastore

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

func createTestSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	return settings
}

// createDatabase opens a temporary database that is closed when the test ends.
func createDatabase(t *testing.T, settings *conf.Settings, opts ...Option) Interface {
	t.Helper()

	dataStore := New(settings, opts...)
	require.NoError(t, dataStore.Open(), "Failed to open database")
	t.Cleanup(func() {
		assert.NoError(t, dataStore.Close(), "Failed to close datastore")
	})

	return dataStore
}

func floatPtr(v float64) *float64 { return &v }

func mustCreateSpecies(t *testing.T, ds Interface, name string, status analytics.PresenceStatus) analytics.Species {
	t.Helper()
	s := analytics.Species{CommonName: name, ScientificName: name + " sci", ConservationStatus: "Least Concern", PresenceStatus: status}
	require.NoError(t, ds.CreateSpecies(context.Background(), &s))
	require.NotEmpty(t, s.ID)
	return s
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseMySQL
	_, ok := New(settings).(*MySQLStore)
	assert.True(t, ok)

	settings.Database.Type = conf.DatabaseSQLite
	_, ok = New(settings).(*SQLiteStore)
	assert.True(t, ok)
}

func TestOperationsBeforeOpen(t *testing.T) {
	t.Parallel()

	ds := New(createTestSettings(t))
	_, err := ds.ListSightings(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
	assert.Error(t, ds.Close())
}

func TestInMemoryDatabase(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseSQLite
	settings.Database.SQLite.Path = memoryPath
	ds := createDatabase(t, settings)

	mustCreateSpecies(t, ds, "Gray Heron", analytics.StatusResident)
	species, err := ds.ListSpecies(context.Background())
	require.NoError(t, err)
	assert.Len(t, species, 1)
}

func TestSpeciesCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	heron := mustCreateSpecies(t, ds, "Gray Heron", analytics.StatusResident)
	mustCreateSpecies(t, ds, "Painted Stork", analytics.StatusRare)
	mustCreateSpecies(t, ds, "Little_Egret", analytics.StatusResident)

	got, err := ds.GetSpecies(ctx, heron.ID)
	require.NoError(t, err)
	assert.Equal(t, heron, got)

	_, err = ds.GetSpecies(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	all, err := ds.ListSpecies(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Gray Heron", all[0].CommonName, "ordered by common name")

	dup := analytics.Species{CommonName: "gray heron"}
	err = ds.CreateSpecies(ctx, &dup)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	bad := analytics.Species{CommonName: "Vagrant Bird", PresenceStatus: "Vagrant"}
	assert.True(t, errors.IsValidation(ds.CreateSpecies(ctx, &bad)))
	assert.True(t, errors.IsValidation(ds.CreateSpecies(ctx, &analytics.Species{})))
}

func TestSearchSpecies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	mustCreateSpecies(t, ds, "Gray Heron", analytics.StatusResident)
	mustCreateSpecies(t, ds, "Purple Heron", analytics.StatusResident)
	mustCreateSpecies(t, ds, "Painted Stork", analytics.StatusRare)
	mustCreateSpecies(t, ds, "Little_Egret", analytics.StatusResident)

	found, err := ds.SearchSpecies(ctx, "HERON", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Gray Heron", found[0].CommonName)

	found, err = ds.SearchSpecies(ctx, "heron", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// LIKE wildcards in the query match literally
	found, err = ds.SearchSpecies(ctx, "_", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Little_Egret", found[0].CommonName)

	_, err = ds.SearchSpecies(ctx, "  ", 10)
	assert.True(t, errors.IsValidation(err))
}

func TestSightingLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	stork := mustCreateSpecies(t, ds, "Painted Stork", analytics.StatusRare)
	ist := time.FixedZone("IST", 5*3600+1800)

	record := analytics.SightingRecord{
		UserID:     "user-1",
		SpeciesRef: stork.ID,
		ObservedAt: time.Date(2025, time.January, 1, 2, 0, 0, 0, ist),
		Location:   &analytics.Location{Name: "South Lake", Latitude: floatPtr(12.5195), Longitude: floatPtr(79.882)},
		Weather:    &analytics.WeatherSnapshot{TemperatureC: floatPtr(27), Condition: "Clear"},
		Notes:      "Feeding",
	}
	require.NoError(t, ds.CreateSighting(ctx, &record))
	require.NotEmpty(t, record.ID)
	assert.Equal(t, "Painted Stork", record.CommonName, "names are filled from the catalog")

	got, err := ds.GetSighting(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.ObservedAt.Location())
	assert.True(t, got.ObservedAt.Equal(time.Date(2024, time.December, 31, 20, 30, 0, 0, time.UTC)), "got %s", got.ObservedAt)
	assert.Equal(t, "Painted Stork", got.CommonName)
	require.NotNil(t, got.Weather)
	assert.Equal(t, "Clear", got.Weather.Condition)
	assert.Nil(t, got.Weather.HumidityPct)
	assert.False(t, got.Verified)

	verified, err := ds.VerifySighting(ctx, record.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	_, err = ds.VerifySighting(ctx, "missing", true)
	assert.True(t, errors.IsNotFound(err))

	_, err = ds.GetSighting(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateSightingByName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))
	when := time.Date(2025, time.February, 3, 7, 0, 0, 0, time.UTC)

	stork := mustCreateSpecies(t, ds, "Painted Stork", analytics.StatusRare)

	t.Run("catalogued common name links the species", func(t *testing.T) {
		record := analytics.SightingRecord{CommonName: "painted stork", ObservedAt: when}
		require.NoError(t, ds.CreateSighting(ctx, &record))
		assert.Equal(t, stork.ID, record.SpeciesRef)

		got, err := ds.GetSighting(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, stork.ID, got.SpeciesRef)
		assert.Equal(t, "Painted Stork", got.CommonName)
		assert.True(t, got.Identified())
	})

	t.Run("scientific name links the species", func(t *testing.T) {
		record := analytics.SightingRecord{ScientificName: "PAINTED STORK SCI", ObservedAt: when}
		require.NoError(t, ds.CreateSighting(ctx, &record))

		got, err := ds.GetSighting(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, stork.ID, got.SpeciesRef)
		assert.Equal(t, "Painted Stork", got.CommonName)
	})

	t.Run("uncatalogued name is kept as free text", func(t *testing.T) {
		record := analytics.SightingRecord{CommonName: "Gray Heron", ScientificName: "Ardea cinerea", ObservedAt: when}
		require.NoError(t, ds.CreateSighting(ctx, &record))
		assert.Empty(t, record.SpeciesRef)

		got, err := ds.GetSighting(ctx, record.ID)
		require.NoError(t, err)
		assert.Empty(t, got.SpeciesRef)
		assert.Equal(t, "Gray Heron", got.CommonName)
		assert.Equal(t, "Ardea cinerea", got.ScientificName)
		assert.True(t, got.Identified())
	})
}

func TestCreateSightingValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))
	when := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record analytics.SightingRecord
	}{
		{"missing time", analytics.SightingRecord{UserID: "u"}},
		{"unknown species", analytics.SightingRecord{SpeciesRef: "nope", ObservedAt: when}},
		{"latitude only", analytics.SightingRecord{ObservedAt: when, Location: &analytics.Location{Latitude: floatPtr(12)}}},
		{"latitude out of range", analytics.SightingRecord{ObservedAt: when, Location: &analytics.Location{Latitude: floatPtr(91), Longitude: floatPtr(0)}}},
		{"NaN longitude", analytics.SightingRecord{ObservedAt: when, Location: &analytics.Location{Latitude: floatPtr(12), Longitude: floatPtr(math.NaN())}}},
		{"negative individuals", analytics.SightingRecord{ObservedAt: when, Individuals: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ds.CreateSighting(ctx, &tt.record)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}

	// An unidentified sighting is valid
	require.NoError(t, ds.CreateSighting(ctx, &analytics.SightingRecord{ObservedAt: when}))
}

func TestListSightingsQueries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	heron := mustCreateSpecies(t, ds, "Gray Heron", analytics.StatusResident)
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 8, 0, 0, 0, time.UTC) }

	records := []analytics.SightingRecord{
		{UserID: "alice", SpeciesRef: heron.ID, ObservedAt: at(2025, time.February, 1),
			Location: &analytics.Location{Latitude: floatPtr(12.52), Longitude: floatPtr(79.88)}},
		{UserID: "bob", SpeciesRef: heron.ID, ObservedAt: at(2025, time.January, 1),
			Location: &analytics.Location{Latitude: floatPtr(13.08), Longitude: floatPtr(80.27)}}, // Chennai, ~75 km away
		{UserID: "alice", ObservedAt: at(2024, time.December, 31)},
	}
	for i := range records {
		require.NoError(t, ds.CreateSighting(ctx, &records[i]))
	}

	all, err := ds.ListSightings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, records[2].ID, all[0].ID, "oldest first")

	inYear, err := ds.ListSightingsBetween(ctx, at(2025, time.January, 1).Add(-8*time.Hour), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, inYear, 2)

	_, err = ds.ListSightingsBetween(ctx, at(2025, 1, 1), at(2025, 1, 1))
	assert.True(t, errors.IsValidation(err))

	byUser, err := ds.ListSightingsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	_, err = ds.ListSightingsByUser(ctx, "")
	assert.True(t, errors.IsValidation(err))

	near, err := ds.ListSightingsByRegion(ctx, 12.5455, 79.8561, 10)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, records[0].ID, near[0].ID)

	wide, err := ds.ListSightingsByRegion(ctx, 12.5455, 79.8561, 100)
	require.NoError(t, err)
	assert.Len(t, wide, 2, "sightings without coordinates never match")

	_, err = ds.ListSightingsByRegion(ctx, 12.5, 79.8, 0)
	assert.True(t, errors.IsValidation(err))
	_, err = ds.ListSightingsByRegion(ctx, 95, 79.8, 5)
	assert.True(t, errors.IsValidation(err))
}

func TestHotspots(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	sanctuary := DemoHotspot()
	require.NoError(t, ds.CreateHotspot(ctx, &sanctuary))
	karikili := Hotspot{Name: "Karikili Bird Sanctuary", Latitude: 12.6120, Longitude: 79.8560}
	require.NoError(t, ds.CreateHotspot(ctx, &karikili))

	// Same eBird ID updates the existing row
	renamed := DemoHotspot()
	renamed.Name = "Vedanthangal Lake"
	require.NoError(t, ds.CreateHotspot(ctx, &renamed))
	assert.Equal(t, sanctuary.ID, renamed.ID)

	all, err := ds.ListHotspots(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Karikili Bird Sanctuary", all[0].Name)
	assert.Equal(t, "Vedanthangal Lake", all[1].Name)

	near, err := ds.HotspotsNearby(ctx, 12.5455, 79.8561, 3)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, sanctuary.ID, near[0].ID)

	assert.True(t, errors.IsValidation(ds.CreateHotspot(ctx, &Hotspot{Name: " "})))
	assert.True(t, errors.IsValidation(ds.CreateHotspot(ctx, &Hotspot{Name: "Nowhere", Latitude: 100})))
}

func TestSeedIsIdempotentForCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	now := time.Date(2025, time.March, 3, 6, 0, 0, 0, time.UTC)
	data := SeedData{
		Species: []analytics.Species{
			{ID: "gray-heron", CommonName: "Gray Heron", ScientificName: "Ardea cinerea", PresenceStatus: analytics.StatusResident},
			{ID: "painted-stork", CommonName: "Painted Stork", ScientificName: "Mycteria leucocephala", PresenceStatus: analytics.StatusRare},
			{ID: "spot-billed-pelican", CommonName: "Spot-billed Pelican", ScientificName: "Pelecanus philippensis", PresenceStatus: analytics.StatusRare},
		},
		Sightings: DemoSightings(now),
		Hotspots:  []Hotspot{DemoHotspot()},
	}

	first, err := ds.Seed(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{SpeciesCreated: 3, SightingsCreated: 3, HotspotsCreated: 1}, first)

	second, err := ds.Seed(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{SpeciesExisting: 3, SightingsCreated: 3}, second)

	sightings, err := ds.ListSightingsByUser(ctx, "demo-user-2")
	require.NoError(t, err)
	require.Len(t, sightings, 2)
	assert.Equal(t, "Painted Stork", sightings[0].CommonName)
	assert.NotEqual(t, "painted-stork", sightings[0].SpeciesRef)
	require.NotNil(t, sightings[0].Weather)
	assert.Equal(t, "Sunny", sightings[0].Weather.Condition)
}

func TestSeedRollsBackOnInvalidSighting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ds := createDatabase(t, createTestSettings(t))

	_, err := ds.Seed(ctx, SeedData{
		Species:   []analytics.Species{{CommonName: "Gray Heron"}},
		Sightings: []analytics.SightingRecord{{CommonName: "Gray Heron"}}, // no time
	})
	require.Error(t, err)

	species, err := ds.ListSpecies(ctx)
	require.NoError(t, err)
	assert.Empty(t, species)
}

func TestDatastoreMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewDatastoreMetrics(registry)
	require.NoError(t, err)

	ds := createDatabase(t, createTestSettings(t), WithMetrics(m))
	_, err = ds.ListSightings(ctx)
	require.NoError(t, err)
	_ = ds.CreateSighting(ctx, &analytics.SightingRecord{})

	count, err := testutil.GatherAndCount(registry, "datastore_operations_total", "datastore_operation_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "query success, insert error and one error-type series")
}
