package datastore

import (
	"time"

	"github.com/vedanthangal/sanctuary/internal/analytics"
)

// SpeciesToEntity converts a catalog species to its database row
func SpeciesToEntity(s *analytics.Species) *Species {
	return &Species{
		ID:                 s.ID,
		CommonName:         s.CommonName,
		ScientificName:     s.ScientificName,
		ConservationStatus: s.ConservationStatus,
		PresenceStatus:     string(s.PresenceStatus),
	}
}

// EntityToSpecies converts a database row to a catalog species
func EntityToSpecies(e *Species) analytics.Species {
	return analytics.Species{
		ID:                 e.ID,
		CommonName:         e.CommonName,
		ScientificName:     e.ScientificName,
		ConservationStatus: e.ConservationStatus,
		PresenceStatus:     analytics.PresenceStatus(e.PresenceStatus),
	}
}

// RecordToEntity converts a sighting record to its database row.
// Observation times are stored in UTC.
func RecordToEntity(r *analytics.SightingRecord) *Sighting {
	e := &Sighting{
		ID:             r.ID,
		UserID:         r.UserID,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		ObservedAt:     r.ObservedAt.UTC(),
		Individuals:    r.Individuals,
		Notes:          r.Notes,
		Verified:       r.Verified,
	}
	if r.SpeciesRef != "" {
		ref := r.SpeciesRef
		e.SpeciesID = &ref
	}
	if r.Location != nil {
		e.LocationName = r.Location.Name
		e.Latitude = r.Location.Latitude
		e.Longitude = r.Location.Longitude
	}
	if r.Weather != nil {
		e.TemperatureC = r.Weather.TemperatureC
		e.HumidityPct = r.Weather.HumidityPct
		e.WeatherCondition = r.Weather.Condition
	}
	return e
}

// EntityToRecord converts a database row to a sighting record. Names come
// from the preloaded species when present, otherwise from the stored
// free-text identification.
func EntityToRecord(e *Sighting) analytics.SightingRecord {
	r := analytics.SightingRecord{
		ID:             e.ID,
		UserID:         e.UserID,
		CommonName:     e.CommonName,
		ScientificName: e.ScientificName,
		ObservedAt:     e.ObservedAt.In(time.UTC),
		Individuals:    e.Individuals,
		Notes:          e.Notes,
		Verified:       e.Verified,
	}
	if e.SpeciesID != nil {
		r.SpeciesRef = *e.SpeciesID
	}
	if e.Species != nil {
		r.CommonName = e.Species.CommonName
		r.ScientificName = e.Species.ScientificName
	}
	if e.LocationName != "" || e.Latitude != nil || e.Longitude != nil {
		r.Location = &analytics.Location{
			Name:      e.LocationName,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
		}
	}
	if e.TemperatureC != nil || e.HumidityPct != nil || e.WeatherCondition != "" {
		r.Weather = &analytics.WeatherSnapshot{
			TemperatureC: e.TemperatureC,
			HumidityPct:  e.HumidityPct,
			Condition:    e.WeatherCondition,
		}
	}
	return r
}

func entitiesToRecords(rows []Sighting) []analytics.SightingRecord {
	records := make([]analytics.SightingRecord, 0, len(rows))
	for i := range rows {
		records = append(records, EntityToRecord(&rows[i]))
	}
	return records
}

func entitiesToSpecies(rows []Species) []analytics.Species {
	species := make([]analytics.Species, 0, len(rows))
	for i := range rows {
		species = append(species, EntityToSpecies(&rows[i]))
	}
	return species
}
