package v1

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/errors"
)

// queryYear reads ?year=, defaulting to the current year in the configured zone.
func (c *Controller) queryYear(ctx echo.Context) (int, error) {
	raw := strings.TrimSpace(ctx.QueryParam("year"))
	if raw == "" {
		return c.clock.Now().In(c.Settings.Location()).Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, paramError("year", raw, "year must be an integer")
	}
	return year, nil
}

// regionQuery holds ?latitude=&longitude=&radius=.
type regionQuery struct {
	present  bool
	lat, lon float64
	radiusKm float64
}

// queryRegion parses the region parameters. The region is present only
// when all three are given.
func queryRegion(ctx echo.Context) (regionQuery, error) {
	latRaw := ctx.QueryParam("latitude")
	lonRaw := ctx.QueryParam("longitude")
	radiusRaw := ctx.QueryParam("radius")
	if latRaw == "" || lonRaw == "" || radiusRaw == "" {
		return regionQuery{}, nil
	}

	var q regionQuery
	var err error
	if q.lat, err = strconv.ParseFloat(latRaw, 64); err != nil {
		return regionQuery{}, paramError("latitude", latRaw, "invalid coordinates")
	}
	if q.lon, err = strconv.ParseFloat(lonRaw, 64); err != nil {
		return regionQuery{}, paramError("longitude", lonRaw, "invalid coordinates")
	}
	if q.radiusKm, err = strconv.ParseFloat(radiusRaw, 64); err != nil {
		return regionQuery{}, paramError("radius", radiusRaw, "invalid radius")
	}
	if _, err := analytics.RegionBounds(q.lat, q.lon, q.radiusKm); err != nil {
		return regionQuery{}, err
	}
	q.present = true
	return q, nil
}

// queryLimit reads ?limit=, 0 when absent.
func queryLimit(ctx echo.Context) (int, error) {
	raw := ctx.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, paramError("limit", raw, "limit must be a non-negative integer")
	}
	return limit, nil
}

func paramError(param, value, message string) error {
	return errors.Newf("%s", message).
		Component("api").
		Category(errors.CategoryValidation).
		Context("param", param).
		Context("value", value).
		Build()
}
