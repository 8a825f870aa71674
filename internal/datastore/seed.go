package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

// SeedData is a bulk load of catalog, sightings and hotspots. Sightings
// without a SpeciesRef are linked to the catalog by common name.
type SeedData struct {
	Species   []analytics.Species
	Sightings []analytics.SightingRecord
	Hotspots  []Hotspot
}

// SeedResult reports what a seed created.
type SeedResult struct {
	SpeciesCreated   int `json:"speciesCreated"`
	SpeciesExisting  int `json:"speciesExisting"`
	SightingsCreated int `json:"sightingsCreated"`
	HotspotsCreated  int `json:"hotspotsCreated"`
}

// Seed loads data in one transaction. Species whose common name is already
// in the catalog are reused, so seeding twice adds sightings but never
// duplicates species or hotspots.
func (ds *DataStore) Seed(ctx context.Context, data SeedData) (result SeedResult, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpSeed, "all", start, err) }()

	db, err := ds.db(ctx)
	if err != nil {
		return SeedResult{}, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		idByName := make(map[string]string, len(data.Species))

		for i := range data.Species {
			s := data.Species[i]
			key := strings.ToLower(strings.TrimSpace(s.CommonName))
			if key == "" {
				return validationError("seed species needs a common name", "commonName", s.ID)
			}

			var existing Species
			err := tx.Where("LOWER(common_name) = ?", key).First(&existing).Error
			switch {
			case err == nil:
				idByName[key] = existing.ID
				result.SpeciesExisting++
				continue
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return dbError(err, "seed", "species")
			}

			// Dataset slugs are not kept; stored species always get a UUID
			s.ID = ""
			row := SpeciesToEntity(&s)
			if err := tx.Create(row).Error; err != nil {
				return dbError(err, "seed", "species", "common_name", s.CommonName)
			}
			idByName[key] = row.ID
			result.SpeciesCreated++
		}

		for i := range data.Sightings {
			r := data.Sightings[i]
			if r.SpeciesRef == "" && r.Identified() {
				if id, ok := idByName[strings.ToLower(strings.TrimSpace(r.CommonName))]; ok {
					r.SpeciesRef = id
				} else {
					existing, err := speciesByName(tx, r.CommonName, r.ScientificName)
					if err != nil {
						return dbError(err, "seed", "species")
					}
					if existing != nil {
						r.SpeciesRef = existing.ID
					}
				}
			}
			if err := validateSighting(&r); err != nil {
				return err
			}
			if err := tx.Omit("Species").Create(RecordToEntity(&r)).Error; err != nil {
				return dbError(err, "seed", "sightings")
			}
			result.SightingsCreated++
		}

		for i := range data.Hotspots {
			h := data.Hotspots[i]
			var count int64
			if err := tx.Model(&Hotspot{}).Where("ebird_id = ? OR name = ?", h.EBirdID, h.Name).Count(&count).Error; err != nil {
				return dbError(err, "seed", "hotspots")
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&h).Error; err != nil {
				return dbError(err, "seed", "hotspots", "name", h.Name)
			}
			result.HotspotsCreated++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	ds.log.Info("seed data loaded",
		logger.Int("species_created", result.SpeciesCreated),
		logger.Int("species_existing", result.SpeciesExisting),
		logger.Int("sightings_created", result.SightingsCreated),
		logger.Int("hotspots_created", result.HotspotsCreated))
	return result, nil
}

// DemoSightings returns three user sightings with weather snapshots,
// observed at now. They reference species by common name.
func DemoSightings(now time.Time) []analytics.SightingRecord {
	ptr := func(v float64) *float64 { return &v }
	demo := func(user, species, place, notes, condition string, lat, lon, temp, humidity float64) analytics.SightingRecord {
		return analytics.SightingRecord{
			UserID:     user,
			CommonName: species,
			ObservedAt: now.UTC(),
			Location: &analytics.Location{
				Name:      place,
				Latitude:  ptr(lat),
				Longitude: ptr(lon),
			},
			Weather: &analytics.WeatherSnapshot{
				TemperatureC: ptr(temp),
				HumidityPct:  ptr(humidity),
				Condition:    condition,
			},
			Individuals: 1,
			Notes:       notes,
		}
	}

	return []analytics.SightingRecord{
		demo("demo-user-1", "Gray Heron", "North Wetland", "Spotted near water", "Partly Cloudy", 12.5201, 79.8828, 28, 65),
		demo("demo-user-2", "Painted Stork", "Central Sanctuary", "In breeding season", "Sunny", 12.5205, 79.8835, 29, 70),
		demo("demo-user-3", "Spot-billed Pelican", "South Lake", "Feeding activity", "Clear", 12.5195, 79.8820, 27, 72),
	}
}

// DemoHotspot is the sanctuary itself.
func DemoHotspot() Hotspot {
	return Hotspot{
		Name:        "Vedanthangal Bird Sanctuary",
		EBirdID:     conf.DefaultHotspotID,
		Latitude:    12.5455,
		Longitude:   79.8561,
		Description: "Heronry and freshwater tank in Chengalpattu district, Tamil Nadu",
	}
}
