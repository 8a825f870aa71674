package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) initHotspotRoutes() {
	c.Group.GET("/hotspots", c.ListHotspots)
	c.Group.GET("/hotspots/nearby", c.NearbyHotspots)
}

// ListHotspots handles GET /api/v1/hotspots
func (c *Controller) ListHotspots(ctx echo.Context) error {
	hotspots, err := c.DS.ListHotspots(ctx.Request().Context())
	if err != nil {
		return c.respondError(ctx, err, "Failed to fetch hotspots")
	}
	return ctx.JSON(http.StatusOK, nonNil(hotspots))
}

// NearbyHotspots handles GET /api/v1/hotspots/nearby?latitude=&longitude=&radius=
func (c *Controller) NearbyHotspots(ctx echo.Context) error {
	region, err := queryRegion(ctx)
	if err != nil {
		return c.respondError(ctx, err, "Invalid coordinates")
	}
	if !region.present {
		return c.HandleError(ctx, nil, "Missing coordinates or radius", http.StatusBadRequest)
	}

	hotspots, err := c.DS.HotspotsNearby(ctx.Request().Context(), region.lat, region.lon, region.radiusKm)
	if err != nil {
		return c.respondError(ctx, err, "Failed to fetch hotspots")
	}
	return ctx.JSON(http.StatusOK, nonNil(hotspots))
}
