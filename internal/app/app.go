// Package app wires the sanctuary service together from its settings.
package app

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/dashboard"
	"github.com/vedanthangal/sanctuary/internal/datastore"
	"github.com/vedanthangal/sanctuary/internal/ebird"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/events"
	"github.com/vedanthangal/sanctuary/internal/feed"
	"github.com/vedanthangal/sanctuary/internal/logger"
	"github.com/vedanthangal/sanctuary/internal/observability"
	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
	"github.com/vedanthangal/sanctuary/internal/telemetry"
)

const telemetryFlushTimeout = 2 * time.Second

// App holds the long-lived components shared by the commands.
type App struct {
	Settings  *conf.Settings
	Build     *buildinfo.Context
	Log       logger.Logger
	Metrics   *observability.Metrics
	Store     datastore.Interface
	Publisher events.Publisher
	Service   *dashboard.Service

	central  *logger.CentralLogger
	fs       afero.Fs
	sentryOn bool
}

// Option configures New.
type Option func(*App)

// WithFs replaces the filesystem the fallback dataset is read from.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithLogger replaces the central logger built from the logging settings.
func WithLogger(log logger.Logger) Option {
	return func(a *App) { a.Log = log }
}

// New builds every component and opens the store. Call Close when done,
// including after an error.
func New(ctx context.Context, settings *conf.Settings, build *buildinfo.Context, opts ...Option) (*App, error) {
	a := &App{
		Settings: settings,
		Build:    build,
		fs:       afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Log == nil {
		central, err := logger.NewCentralLogger(&settings.Logging)
		if err != nil {
			return a, errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
		a.central = central
		a.Log = central.Module("main")
	}

	var err error
	if a.sentryOn, err = telemetry.Init(settings, build, a.Log); err != nil {
		a.Log.Warn("error telemetry disabled", logger.Error(err))
	}

	if a.Metrics, err = observability.NewMetrics(); err != nil {
		return a, err
	}

	fallback, err := feed.LoadFallback(a.fs, settings.Analytics.FallbackPath)
	if err != nil {
		return a, err
	}

	store := datastore.New(settings,
		datastore.WithLogger(a.Log),
		datastore.WithMetrics(a.Metrics.Datastore))
	if err := store.Open(); err != nil {
		return a, err
	}
	a.Store = store

	if a.Publisher, err = events.New(ctx, settings, a.Log, a.Metrics.Events); err != nil {
		return a, err
	}

	adapter := feed.NewAdapter(a.observationSource(), feed.Config{
		HotspotID: settings.EBird.HotspotID,
		Region:    settings.EBird.Region,
		BackDays:  settings.EBird.BackDays,
		Timeout:   settings.EBird.Timeout,
	}, a.Log)

	a.Service = dashboard.New(a.Store, adapter, fallback, dashboard.Config{
		TopN:     settings.Analytics.TopN,
		CacheTTL: settings.Analytics.CacheTTL,
		Location: settings.Location(),
	},
		dashboard.WithLogger(a.Log),
		dashboard.WithMetrics(a.Metrics.Analytics),
		dashboard.WithPublisher(a.Publisher))

	a.Log.Info("sanctuary service ready",
		logger.String("version", build.GetVersion()),
		logger.String("database", settings.Database.Type),
		logger.Bool("ebird", adapter.Configured()),
		logger.Int("fallback_sightings", fallback.Total()),
		logger.Bool("sentry", a.sentryOn))

	return a, nil
}

// observationSource returns the eBird client, or nil when the feed is
// disabled or cannot be built. A nil source serves the fallback dataset.
func (a *App) observationSource() feed.ObservationSource {
	if !a.Settings.EBird.Enabled {
		return nil
	}

	client, err := ebird.NewClient(ebird.Config{
		APIKey:      a.Settings.EBird.APIKey,
		Timeout:     a.Settings.EBird.Timeout,
		CacheTTL:    a.Settings.EBird.CacheTTL,
		RateLimitMS: a.Settings.EBird.RateLimitMS,
	}, a.Log)
	if err != nil {
		a.Log.Warn("eBird feed disabled", logger.Error(err))
		return nil
	}

	stats := func() metrics.EBirdStats {
		m := client.GetMetrics()
		return metrics.EBirdStats{
			APICalls:    m.APICalls,
			CacheHits:   m.CacheHits,
			CacheMisses: m.CacheMisses,
			APIErrors:   m.APIErrors,
		}
	}
	if err := a.Metrics.RegisterEBird(stats); err != nil {
		a.Log.Warn("eBird metrics unavailable", logger.Error(err))
	}
	return client
}

// Close releases every component New created. It is safe on a partially
// built App.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.sentryOn {
		telemetry.Flush(telemetryFlushTimeout)
	}
	if a.central != nil {
		errs = append(errs, a.central.Close())
	}
	return errors.Join(errs...)
}
