// Package dashboard serves the analytics views. One request fetches the
// record store and the observation feed concurrently, picks exactly one
// dataset and aggregates it.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/datastore"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/events"
	"github.com/vedanthangal/sanctuary/internal/feed"
	"github.com/vedanthangal/sanctuary/internal/logger"
	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

const (
	defaultTopN     = 5
	viewAnalytics   = "analytics"
	publishTimeout  = 5 * time.Second
	cacheKeyPattern = "analytics:%d"
)

// Store is the part of the record store the service reads and writes.
type Store interface {
	ListSightingsBetween(ctx context.Context, from, to time.Time) ([]analytics.SightingRecord, error)
	ListSpecies(ctx context.Context) ([]analytics.Species, error)
	CreateSighting(ctx context.Context, record *analytics.SightingRecord) error
	Seed(ctx context.Context, data datastore.SeedData) (datastore.SeedResult, error)
}

// Feed is the observation feed. *feed.Adapter implements it.
type Feed interface {
	Fetch(ctx context.Context, year int) feed.Result
	Notable(ctx context.Context) []analytics.SightingRecord
}

// Metrics records aggregation outcomes. *metrics.AnalyticsMetrics
// implements it.
type Metrics interface {
	RecordFeedFetch(outcome string)
	RecordSourceSelection(source string)
	RecordSkippedRecords(source string, n int)
	RecordAggregationDuration(view string, seconds float64)
	RecordCacheOperation(result string)
}

// Config tunes the service.
type Config struct {
	TopN     int            // entries per ranking, defaults to 5
	CacheTTL time.Duration  // response cache lifetime, 0 disables caching
	Location *time.Location // zone for the current month, defaults to UTC
}

// Service computes dashboard analytics.
type Service struct {
	store     Store
	feed      Feed
	fallback  *feed.Fallback
	config    Config
	cache     *cache.Cache
	clock     clockwork.Clock
	publisher events.Publisher
	metrics   Metrics
	log       logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPublisher announces created sightings.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records aggregation metrics.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger; the service logs under the "dashboard" module.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = log.Module("dashboard") }
}

// New creates a service. fallback is the dataset used when neither the
// store nor the feed has data for a year.
func New(store Store, source Feed, fallback *feed.Fallback, config Config, opts ...Option) *Service {
	if config.TopN <= 0 {
		config.TopN = defaultTopN
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	s := &Service{
		store:     store,
		feed:      source,
		fallback:  fallback,
		config:    config,
		clock:     clockwork.NewRealClock(),
		publisher: events.Noop{},
		metrics:   noopMetrics{},
		log:       logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	if config.CacheTTL > 0 {
		s.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}
	return s
}

// GetAnalytics returns every dashboard view for year.
func (s *Service) GetAnalytics(ctx context.Context, year int) (analytics.AggregatedAnalytics, error) {
	if err := analytics.ValidateYear(year, s.clock.Now()); err != nil {
		return analytics.AggregatedAnalytics{}, err
	}

	key := fmt.Sprintf(cacheKeyPattern, year)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			s.metrics.RecordCacheOperation(metrics.LabelHit)
			return cloneAnalytics(cached.(analytics.AggregatedAnalytics)), nil
		}
		s.metrics.RecordCacheOperation(metrics.LabelMiss)
	}

	start := s.clock.Now()
	dataset, catalog, err := s.load(ctx, year)
	if err != nil {
		return analytics.AggregatedAnalytics{}, err
	}

	result := analytics.Aggregate(dataset.Records, catalog, year, s.config.TopN)
	result.Source = dataset.Source
	result.DatasetVersion = dataset.Version

	for _, m := range result.Skipped {
		s.log.Warn("sighting skipped",
			logger.String("source", dataset.Source),
			logger.String("sighting_id", m.Record.ID),
			logger.Error(m.Err))
	}
	s.metrics.RecordSkippedRecords(dataset.Source, result.SkippedRecords)
	s.metrics.RecordSourceSelection(dataset.Source)
	s.metrics.RecordAggregationDuration(viewAnalytics, s.clock.Since(start).Seconds())

	s.log.Debug("analytics computed",
		logger.Int("year", year),
		logger.String("source", dataset.Source),
		logger.Int("sightings", result.TotalSightings),
		logger.Int("species", result.TotalSpecies))

	if s.cache != nil {
		s.cache.SetDefault(key, cloneAnalytics(result))
	}
	return result, nil
}

// cloneAnalytics copies the slices of a result so callers never share
// backing arrays with the cache.
func cloneAnalytics(a analytics.AggregatedAnalytics) analytics.AggregatedAnalytics {
	a.TopSpecies = slices.Clone(a.TopSpecies)
	a.RareSpecies = slices.Clone(a.RareSpecies)
	a.Skipped = slices.Clone(a.Skipped)
	return a
}

// GetTimeline returns the monthly timeline for year, taken from the same
// dataset GetAnalytics would use.
func (s *Service) GetTimeline(ctx context.Context, year int) (analytics.MonthlyTimeline, error) {
	result, err := s.GetAnalytics(ctx, year)
	if err != nil {
		return analytics.MonthlyTimeline{}, err
	}
	return result.Timeline, nil
}

// load fetches the store and the feed concurrently and picks one dataset.
// Store failures are logged and treated as an empty store.
func (s *Service) load(ctx context.Context, year int) (feed.Dataset, *analytics.Catalog, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var (
		stored  []analytics.SightingRecord
		species []analytics.Species
		result  feed.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.store.ListSightingsBetween(gctx, from, to)
		if err != nil {
			s.log.Warn("sighting store unavailable", logger.Int("year", year), logger.Error(err))
			return nil
		}
		stored = records
		return nil
	})
	g.Go(func() error {
		list, err := s.store.ListSpecies(gctx)
		if err != nil {
			s.log.Warn("species catalog unavailable", logger.Error(err))
			return nil
		}
		species = list
		return nil
	})
	g.Go(func() error {
		result = s.feed.Fetch(gctx, year)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return feed.Dataset{}, nil, errors.New(err).
			Component("dashboard").
			Category(errors.CategoryCancellation).
			Context("year", year).
			Build()
	}

	if _, ok := result.(feed.Success); ok {
		s.metrics.RecordFeedFetch(metrics.LabelSuccess)
	} else {
		s.metrics.RecordFeedFetch(metrics.LabelUnavailable)
	}

	var dataset feed.Dataset
	if inYear := analytics.FilterYear(stored, year); len(inYear) > 0 {
		dataset = feed.Dataset{Source: feed.SourceStore, Records: stored}
	} else {
		dataset = feed.Resolve(result, s.fallback, year)
	}

	catalog := analytics.NewCatalog(append(species, dataset.Species...))
	return dataset, catalog, nil
}

// CurrentYear returns the year in the configured zone.
func (s *Service) CurrentYear() int {
	return s.clock.Now().In(s.config.Location).Year()
}

// MigrationStatus describes the current month at the sanctuary.
func (s *Service) MigrationStatus() analytics.MigrationStatus {
	return analytics.MigrationStatusFor(s.clock.Now().In(s.config.Location).Month())
}

// Notable returns recent notable observations in the region.
func (s *Service) Notable(ctx context.Context) []analytics.SightingRecord {
	return s.feed.Notable(ctx)
}

// CreateSighting stores record, drops cached analytics and announces the
// sighting. A failed announcement is logged and does not fail the call.
func (s *Service) CreateSighting(ctx context.Context, record *analytics.SightingRecord) error {
	if err := s.store.CreateSighting(ctx, record); err != nil {
		return err
	}
	s.Invalidate()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, events.NewSightingCreated(*record, s.clock.Now())); err != nil {
		s.log.Warn("sighting event not published",
			logger.String("sighting_id", record.ID),
			logger.String("publisher", s.publisher.Name()),
			logger.Error(err))
	}
	return nil
}

// SeedDemo loads the fallback species catalog, three demo sightings and
// the sanctuary hotspot.
func (s *Service) SeedDemo(ctx context.Context) (datastore.SeedResult, error) {
	var catalog []analytics.Species
	if s.fallback != nil {
		catalog = slices.Clone(s.fallback.Species)
	}
	data := datastore.SeedData{
		Species:   catalog,
		Sightings: datastore.DemoSightings(s.clock.Now()),
		Hotspots:  []datastore.Hotspot{datastore.DemoHotspot()},
	}
	result, err := s.store.Seed(ctx, data)
	if err != nil {
		return datastore.SeedResult{}, err
	}
	s.Invalidate()
	return result, nil
}

// Invalidate drops all cached analytics.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordFeedFetch(string)                   {}
func (noopMetrics) RecordSourceSelection(string)             {}
func (noopMetrics) RecordSkippedRecords(string, int)         {}
func (noopMetrics) RecordAggregationDuration(string, float64) {}
func (noopMetrics) RecordCacheOperation(string)              {}
