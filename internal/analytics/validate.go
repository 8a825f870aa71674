package analytics

import (
	"time"

	"github.com/vedanthangal/sanctuary/internal/errors"
)

const (
	// MinYear is the earliest year accepted for aggregation.
	MinYear = 1900

	// KmPerDegree approximates kilometres per degree at the sanctuary's latitude.
	KmPerDegree = 111.0

	// MaxRadiusKm bounds region queries; the bounding-box approximation
	// degrades beyond a few hundred kilometres.
	MaxRadiusKm = 200.0
)

// ValidateYear rejects years before MinYear or after next year relative to now.
func ValidateYear(year int, now time.Time) error {
	maxYear := now.UTC().Year() + 1
	if year < MinYear || year > maxYear {
		return errors.Newf("year %d out of range [%d, %d]", year, MinYear, maxYear).
			Component("analytics").
			Category(errors.CategoryValidation).
			Context("year", year).
			Build()
	}
	return nil
}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes
// outside [-180, 180]. NaN is never in range.
func ValidateCoordinates(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90) || !(lon >= -180 && lon <= 180) {
		return errors.Newf("coordinates (%g, %g) out of range", lat, lon).
			Component("analytics").
			Category(errors.CategoryValidation).
			Context("latitude", lat).
			Context("longitude", lon).
			Build()
	}
	return nil
}

// Bounds is a latitude/longitude box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// RegionBounds validates a centre point and radius and returns the square
// box of half-width radiusKm/KmPerDegree degrees around it.
func RegionBounds(lat, lon, radiusKm float64) (Bounds, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return Bounds{}, err
	}
	if !(radiusKm > 0 && radiusKm <= MaxRadiusKm) {
		return Bounds{}, errors.Newf("radius %g km must be greater than 0 and at most %g km", radiusKm, MaxRadiusKm).
			Component("analytics").
			Category(errors.CategoryValidation).
			Context("radius_km", radiusKm).
			Build()
	}

	delta := radiusKm / KmPerDegree
	return Bounds{
		MinLat: lat - delta,
		MaxLat: lat + delta,
		MinLon: lon - delta,
		MaxLon: lon + delta,
	}, nil
}
