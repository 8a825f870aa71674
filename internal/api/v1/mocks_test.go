package v1

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/datastore"
)

// MockDataStore implements datastore.Interface for testing
type MockDataStore struct {
	mock.Mock
}

var _ datastore.Interface = (*MockDataStore)(nil)

func (m *MockDataStore) Open() error  { return m.Called().Error(0) }
func (m *MockDataStore) Close() error { return m.Called().Error(0) }

func (m *MockDataStore) ListSightings(ctx context.Context) ([]analytics.SightingRecord, error) {
	args := m.Called()
	return records(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) ListSightingsBetween(ctx context.Context, from, to time.Time) ([]analytics.SightingRecord, error) {
	args := m.Called(from, to)
	return records(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) ListSightingsByUser(ctx context.Context, userID string) ([]analytics.SightingRecord, error) {
	args := m.Called(userID)
	return records(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) ListSightingsByRegion(ctx context.Context, lat, lon, radiusKm float64) ([]analytics.SightingRecord, error) {
	args := m.Called(lat, lon, radiusKm)
	return records(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) GetSighting(ctx context.Context, id string) (analytics.SightingRecord, error) {
	args := m.Called(id)
	return args.Get(0).(analytics.SightingRecord), args.Error(1)
}

func (m *MockDataStore) CreateSighting(ctx context.Context, record *analytics.SightingRecord) error {
	return m.Called(record).Error(0)
}

func (m *MockDataStore) VerifySighting(ctx context.Context, id string, verified bool) (analytics.SightingRecord, error) {
	args := m.Called(id, verified)
	return args.Get(0).(analytics.SightingRecord), args.Error(1)
}

func (m *MockDataStore) ListSpecies(ctx context.Context) ([]analytics.Species, error) {
	args := m.Called()
	return species(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) GetSpecies(ctx context.Context, id string) (analytics.Species, error) {
	args := m.Called(id)
	return args.Get(0).(analytics.Species), args.Error(1)
}

func (m *MockDataStore) CreateSpecies(ctx context.Context, s *analytics.Species) error {
	return m.Called(s).Error(0)
}

func (m *MockDataStore) SearchSpecies(ctx context.Context, query string, limit int) ([]analytics.Species, error) {
	args := m.Called(query, limit)
	return species(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) ListHotspots(ctx context.Context) ([]datastore.Hotspot, error) {
	args := m.Called()
	return hotspots(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) HotspotsNearby(ctx context.Context, lat, lon, radiusKm float64) ([]datastore.Hotspot, error) {
	args := m.Called(lat, lon, radiusKm)
	return hotspots(args.Get(0)), args.Error(1)
}

func (m *MockDataStore) CreateHotspot(ctx context.Context, h *datastore.Hotspot) error {
	return m.Called(h).Error(0)
}

func (m *MockDataStore) Seed(ctx context.Context, data datastore.SeedData) (datastore.SeedResult, error) {
	args := m.Called(data)
	return args.Get(0).(datastore.SeedResult), args.Error(1)
}

// MockService implements AnalyticsService for testing
type MockService struct {
	mock.Mock
}

func (m *MockService) GetAnalytics(ctx context.Context, year int) (analytics.AggregatedAnalytics, error) {
	args := m.Called(year)
	return args.Get(0).(analytics.AggregatedAnalytics), args.Error(1)
}

func (m *MockService) GetTimeline(ctx context.Context, year int) (analytics.MonthlyTimeline, error) {
	args := m.Called(year)
	return args.Get(0).(analytics.MonthlyTimeline), args.Error(1)
}

func (m *MockService) MigrationStatus() analytics.MigrationStatus {
	return m.Called().Get(0).(analytics.MigrationStatus)
}

func (m *MockService) Notable(ctx context.Context) []analytics.SightingRecord {
	return records(m.Called().Get(0))
}

func (m *MockService) CreateSighting(ctx context.Context, record *analytics.SightingRecord) error {
	return m.Called(record).Error(0)
}

func (m *MockService) SeedDemo(ctx context.Context) (datastore.SeedResult, error) {
	args := m.Called()
	return args.Get(0).(datastore.SeedResult), args.Error(1)
}

func records(v any) []analytics.SightingRecord {
	if v == nil {
		return nil
	}
	return v.([]analytics.SightingRecord)
}

func species(v any) []analytics.Species {
	if v == nil {
		return nil
	}
	return v.([]analytics.Species)
}

func hotspots(v any) []datastore.Hotspot {
	if v == nil {
		return nil
	}
	return v.([]datastore.Hotspot)
}
