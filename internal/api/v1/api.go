// Package v1 implements the JSON endpoints under /api/v1.
package v1

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/datastore"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// AnalyticsService is the dashboard service. *dashboard.Service implements it.
type AnalyticsService interface {
	GetAnalytics(ctx context.Context, year int) (analytics.AggregatedAnalytics, error)
	GetTimeline(ctx context.Context, year int) (analytics.MonthlyTimeline, error)
	MigrationStatus() analytics.MigrationStatus
	Notable(ctx context.Context) []analytics.SightingRecord
	CreateSighting(ctx context.Context, record *analytics.SightingRecord) error
	SeedDemo(ctx context.Context) (datastore.SeedResult, error)
}

// Controller manages the API routes and handlers
type Controller struct {
	Group     *echo.Group
	DS        datastore.Interface
	Service   AnalyticsService
	Settings  *conf.Settings
	build     *buildinfo.Context
	clock     clockwork.Clock
	startTime time.Time
	logger    logger.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for default years and uptime.
func WithClock(c clockwork.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithBuildInfo reports build metadata on the health endpoint.
func WithBuildInfo(b *buildinfo.Context) Option {
	return func(ctrl *Controller) { ctrl.build = b }
}

// WithLogger sets the logger; the controller logs under the "api" module.
func WithLogger(log logger.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = log.Module("api") }
}

// New creates the controller and registers its routes under /api/v1.
func New(e *echo.Echo, ds datastore.Interface, service AnalyticsService, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		DS:       ds,
		Service:  service,
		Settings: settings,
		build:    &buildinfo.Context{},
		clock:    clockwork.NewRealClock(),
		logger:   logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startTime = c.clock.Now()

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.initAnalyticsRoutes()
	c.initSpeciesRoutes()
	c.initSightingRoutes()
	c.initHotspotRoutes()

	c.Group.GET("/ebird/notable", c.GetNotable)
	c.Group.POST("/seed-demo", c.SeedDemo)
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	now := c.clock.Now()
	uptime := now.Sub(c.startTime)

	response := map[string]any{
		"status":         "healthy",
		"version":        c.build.GetVersion(),
		"build_date":     c.build.GetBuildDate(),
		"timestamp":      now.UTC().Format(time.RFC3339),
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
	}

	dbStatus := "connected"
	if _, err := c.DS.ListHotspots(ctx.Request().Context()); err != nil {
		dbStatus = "disconnected"
		response["database_error"] = err.Error()
		response["status"] = "degraded"
	}
	response["database_status"] = dbStatus

	return ctx.JSON(http.StatusOK, response)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// HandleError constructs and returns an appropriate error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}

	if code >= http.StatusInternalServerError {
		c.logger.Error("API error", fields...)
	} else {
		c.logger.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, errorResp)
}

// respondError maps err's category to a status code.
func (c *Controller) respondError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	case errors.IsCategory(err, errors.CategoryTimeout), errors.IsCategory(err, errors.CategoryCancellation):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
