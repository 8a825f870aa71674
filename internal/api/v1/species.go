package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vedanthangal/sanctuary/internal/analytics"
)

// SpeciesRequest is the body of POST /api/v1/species
type SpeciesRequest struct {
	CommonName         string `json:"commonName"`
	ScientificName     string `json:"scientificName"`
	ConservationStatus string `json:"conservationStatus"`
	PresenceStatus     string `json:"presenceStatus"`
}

func (c *Controller) initSpeciesRoutes() {
	c.Group.GET("/species", c.ListSpecies)
	c.Group.GET("/species/:id", c.GetSpecies)
	c.Group.POST("/species", c.CreateSpecies)
	c.Group.GET("/search", c.SearchSpecies)
}

// ListSpecies handles GET /api/v1/species
func (c *Controller) ListSpecies(ctx echo.Context) error {
	species, err := c.DS.ListSpecies(ctx.Request().Context())
	if err != nil {
		return c.respondError(ctx, err, "Failed to fetch species")
	}
	return ctx.JSON(http.StatusOK, species)
}

// GetSpecies handles GET /api/v1/species/:id
func (c *Controller) GetSpecies(ctx echo.Context) error {
	species, err := c.DS.GetSpecies(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.respondError(ctx, err, "Species not found")
	}
	return ctx.JSON(http.StatusOK, species)
}

// CreateSpecies handles POST /api/v1/species
func (c *Controller) CreateSpecies(ctx echo.Context) error {
	var req SpeciesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid data", http.StatusBadRequest)
	}

	species := analytics.Species{
		CommonName:         req.CommonName,
		ScientificName:     strings.TrimSpace(req.ScientificName),
		ConservationStatus: strings.TrimSpace(req.ConservationStatus),
		PresenceStatus:     analytics.PresenceStatus(strings.TrimSpace(req.PresenceStatus)),
	}
	if err := c.DS.CreateSpecies(ctx.Request().Context(), &species); err != nil {
		return c.respondError(ctx, err, "Failed to create species")
	}
	return ctx.JSON(http.StatusCreated, species)
}

// SearchSpecies handles GET /api/v1/search?q=&limit=
func (c *Controller) SearchSpecies(ctx echo.Context) error {
	query := strings.TrimSpace(ctx.QueryParam("q"))
	if query == "" {
		return c.HandleError(ctx, nil, "Search query required", http.StatusBadRequest)
	}
	limit, err := queryLimit(ctx)
	if err != nil {
		return c.respondError(ctx, err, "Invalid limit")
	}

	species, err := c.DS.SearchSpecies(ctx.Request().Context(), query, limit)
	if err != nil {
		return c.respondError(ctx, err, "Search failed")
	}
	return ctx.JSON(http.StatusOK, map[string]any{"species": species})
}
