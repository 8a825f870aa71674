package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vedanthangal/sanctuary/internal/analytics"
)

// SightingRequest is the body of POST /api/v1/sightings. ObservedAt
// defaults to the time of the request.
type SightingRequest struct {
	UserID         string                     `json:"userId"`
	SpeciesID      string                     `json:"speciesId"`
	CommonName     string                     `json:"commonName"`
	ScientificName string                     `json:"scientificName"`
	ObservedAt     *time.Time                 `json:"observedAt"`
	Location       *analytics.Location        `json:"location"`
	Weather        *analytics.WeatherSnapshot `json:"weather"`
	Individuals    int                        `json:"individuals"`
	Notes          string                     `json:"notes"`
}

// VerifyRequest is the body of PATCH /api/v1/sightings/:id/verify
type VerifyRequest struct {
	Verified *bool `json:"verified"`
}

func (c *Controller) initSightingRoutes() {
	c.Group.GET("/sightings", c.ListSightings)
	c.Group.GET("/sightings/:id", c.GetSighting)
	c.Group.POST("/sightings", c.CreateSighting)
	c.Group.PATCH("/sightings/:id/verify", c.VerifySighting)
}

// ListSightings handles GET /api/v1/sightings. It filters by ?userId= or by
// ?latitude=&longitude=&radius=, in that order, and lists all otherwise.
func (c *Controller) ListSightings(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	if userID := ctx.QueryParam("userId"); userID != "" {
		records, err := c.DS.ListSightingsByUser(reqCtx, userID)
		if err != nil {
			return c.respondError(ctx, err, "Failed to fetch sightings")
		}
		return ctx.JSON(http.StatusOK, nonNil(records))
	}

	region, err := queryRegion(ctx)
	if err != nil {
		return c.respondError(ctx, err, "Invalid coordinates")
	}
	if region.present {
		records, err := c.DS.ListSightingsByRegion(reqCtx, region.lat, region.lon, region.radiusKm)
		if err != nil {
			return c.respondError(ctx, err, "Failed to fetch sightings")
		}
		return ctx.JSON(http.StatusOK, nonNil(records))
	}

	records, err := c.DS.ListSightings(reqCtx)
	if err != nil {
		return c.respondError(ctx, err, "Failed to fetch sightings")
	}
	return ctx.JSON(http.StatusOK, nonNil(records))
}

// GetSighting handles GET /api/v1/sightings/:id
func (c *Controller) GetSighting(ctx echo.Context) error {
	record, err := c.DS.GetSighting(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.respondError(ctx, err, "Sighting not found")
	}
	return ctx.JSON(http.StatusOK, record)
}

// CreateSighting handles POST /api/v1/sightings
func (c *Controller) CreateSighting(ctx echo.Context) error {
	var req SightingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid data", http.StatusBadRequest)
	}

	observedAt := c.clock.Now()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}
	individuals := req.Individuals
	if individuals == 0 {
		individuals = 1
	}

	record := analytics.SightingRecord{
		UserID:         req.UserID,
		SpeciesRef:     req.SpeciesID,
		CommonName:     req.CommonName,
		ScientificName: req.ScientificName,
		ObservedAt:     observedAt.UTC(),
		Location:       req.Location,
		Weather:        req.Weather,
		Individuals:    individuals,
		Notes:          req.Notes,
	}
	if err := c.Service.CreateSighting(ctx.Request().Context(), &record); err != nil {
		return c.respondError(ctx, err, "Failed to create sighting")
	}
	return ctx.JSON(http.StatusCreated, record)
}

// VerifySighting handles PATCH /api/v1/sightings/:id/verify. The flag
// defaults to true when the body omits it.
func (c *Controller) VerifySighting(ctx echo.Context) error {
	var req VerifyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid data", http.StatusBadRequest)
	}
	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}

	record, err := c.DS.VerifySighting(ctx.Request().Context(), ctx.Param("id"), verified)
	if err != nil {
		return c.respondError(ctx, err, "Sighting not found")
	}
	return ctx.JSON(http.StatusOK, record)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
