package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// TimelineResponse is the monthly timeline with its seasonal rollup.
type TimelineResponse struct {
	analytics.MonthlyTimeline
	Seasonal analytics.SeasonalBuckets `json:"seasonal"`
}

func (c *Controller) initAnalyticsRoutes() {
	g := c.Group.Group("/analytics")
	g.GET("", c.GetAnalytics)
	g.GET("/timeline", c.GetTimeline)
	g.GET("/migration-status", c.GetMigrationStatus)
}

// GetAnalytics handles GET /api/v1/analytics?year=
func (c *Controller) GetAnalytics(ctx echo.Context) error {
	year, err := c.queryYear(ctx)
	if err != nil {
		return c.respondError(ctx, err, "Invalid year")
	}

	result, err := c.Service.GetAnalytics(ctx.Request().Context(), year)
	if err != nil {
		return c.respondError(ctx, err, "Failed to compute analytics")
	}
	return ctx.JSON(http.StatusOK, result)
}

// GetTimeline handles GET /api/v1/analytics/timeline?year=
func (c *Controller) GetTimeline(ctx echo.Context) error {
	year, err := c.queryYear(ctx)
	if err != nil {
		return c.respondError(ctx, err, "Invalid year")
	}

	timeline, err := c.Service.GetTimeline(ctx.Request().Context(), year)
	if err != nil {
		return c.respondError(ctx, err, "Failed to compute timeline")
	}
	return ctx.JSON(http.StatusOK, TimelineResponse{
		MonthlyTimeline: timeline,
		Seasonal:        analytics.BuildSeasonalRollup(timeline),
	})
}

// GetMigrationStatus handles GET /api/v1/analytics/migration-status
func (c *Controller) GetMigrationStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Service.MigrationStatus())
}

// GetNotable handles GET /api/v1/ebird/notable. An unavailable feed
// answers with an empty list.
func (c *Controller) GetNotable(ctx echo.Context) error {
	records := c.Service.Notable(ctx.Request().Context())
	if records == nil {
		records = []analytics.SightingRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// SeedDemo handles POST /api/v1/seed-demo
func (c *Controller) SeedDemo(ctx echo.Context) error {
	result, err := c.Service.SeedDemo(ctx.Request().Context())
	if err != nil {
		return c.respondError(ctx, err, "Failed to seed data")
	}
	c.logger.Info("demo data seeded",
		logger.Int("species_created", result.SpeciesCreated),
		logger.Int("sightings_created", result.SightingsCreated))
	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Demo data seeded",
		"result":  result,
	})
}
