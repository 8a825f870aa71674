package api

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/vedanthangal/sanctuary/internal/api/middleware"
	v1 "github.com/vedanthangal/sanctuary/internal/api/v1"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/datastore"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
	"github.com/vedanthangal/sanctuary/internal/observability"
)

// Server is the HTTP server for the sanctuary API.
// It owns the Echo instance, the middleware stack and the v1 routes.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	dataStore datastore.Interface
	service   v1.AnalyticsService
	metrics   *observability.Metrics
	build     *buildinfo.Context
	clock     clockwork.Clock

	apiController *v1.Controller

	mu      sync.Mutex
	serving chan error
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger; requests are logged under the "http" module.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records request metrics and mounts the Prometheus handler
// when a metrics path is configured.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBuildInfo reports build metadata on the health endpoint.
func WithBuildInfo(b *buildinfo.Context) ServerOption {
	return func(s *Server) {
		s.build = b
	}
}

// WithClock replaces the wall clock handed to the API controller.
func WithClock(c clockwork.Clock) ServerOption {
	return func(s *Server) {
		s.clock = c
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, ds datastore.Interface, service v1.AnalyticsService, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, errors.New(err).
			Component("api").
			Category(errors.CategoryConfiguration).
			Context("config", config.String()).
			Build()
	}

	s := &Server{
		config:    config,
		settings:  settings,
		dataStore: ds,
		service:   service,
		log:       logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil),
		build:     &buildinfo.Context{},
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("listen", config.Listen),
		logger.Int("cors_origins", len(config.AllowedOrigins)),
		logger.String("metrics_path", config.MetricsPath))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	s.echo.Use(middleware.NewTraceID())
	s.echo.Use(middleware.NewRequestLogger(s.log.Module("http"), s.skipMetricsPath))
	s.echo.Use(middleware.NewSecurity(middleware.SecurityConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		BodyLimit:      s.config.BodyLimit,
	})...)

	if s.metrics != nil {
		s.echo.Use(middleware.NewMetrics(s.metrics.HTTP))
	}
}

// skipMetricsPath keeps Prometheus scrapes out of the request log.
func (s *Server) skipMetricsPath(c echo.Context) bool {
	return s.config.MetricsPath != "" && c.Path() == s.config.MetricsPath
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.apiController = v1.New(s.echo, s.dataStore, s.service, s.settings,
		v1.WithLogger(s.log),
		v1.WithBuildInfo(s.build),
		v1.WithClock(s.clock))

	if s.metrics != nil && s.config.MetricsPath != "" {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	}
}

// Start begins serving HTTP requests in a background goroutine and
// returns immediately. Use Shutdown to stop the server.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serving != nil {
		return
	}

	done := make(chan error, 1)
	s.serving = done
	go func() {
		err := s.echo.Start(s.config.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", logger.Error(err))
			done <- errors.New(err).
				Component("api").
				Category(errors.CategoryNetwork).
				Context("listen", s.config.Listen).
				Build()
		}
		close(done)
	}()

	s.log.Info("HTTP server starting", logger.String("listen", s.config.Listen))
}

// StartBlocking serves until ctx is cancelled or the listener fails, then
// shuts the server down gracefully.
func (s *Server) StartBlocking(ctx context.Context) error {
	s.Start()

	select {
	case err := <-s.serving:
		return err
	case <-ctx.Done():
		s.log.Info("shutdown requested")
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return errors.New(err).
			Component("api").
			Category(errors.CategoryTimeout).
			Build()
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}

// APIController returns the v1 controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
