// Package analytics turns sighting records into the dashboard views: monthly
// timelines, seasonal roll-ups, top-N rankings and presence-status totals.
//
// Every function in this package is pure. Inputs are never modified and the
// same input always yields the same output, regardless of record order.
package analytics

import "time"

// PresenceStatus classifies a species at the sanctuary.
type PresenceStatus string

const (
	StatusResident  PresenceStatus = "Resident"
	StatusMigratory PresenceStatus = "Migratory"
	StatusRare      PresenceStatus = "Rare"
)

// Valid reports whether p is one of the three classified statuses.
func (p PresenceStatus) Valid() bool {
	switch p {
	case StatusResident, StatusMigratory, StatusRare:
		return true
	default:
		return false
	}
}

// Species is a catalogued taxon.
type Species struct {
	ID                 string         `json:"id"`
	CommonName         string         `json:"commonName"`
	ScientificName     string         `json:"scientificName"`
	ConservationStatus string         `json:"conservationStatus,omitempty"`
	PresenceStatus     PresenceStatus `json:"presenceStatus,omitempty"`
}

// Location is where a sighting was made. Coordinates are optional.
type Location struct {
	Name      string   `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// WeatherSnapshot is carried through for display only.
type WeatherSnapshot struct {
	TemperatureC *float64 `json:"temperatureC,omitempty"`
	HumidityPct  *float64 `json:"humidityPct,omitempty"`
	Condition    string   `json:"condition,omitempty"`
}

// SightingRecord is one observed occurrence of a species.
//
// SpeciesRef points into the species catalog. Records without a catalog
// reference may carry the observed names directly, as feed observations do.
// A record with neither is unidentified: it counts in the timeline but in
// no species view.
type SightingRecord struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId,omitempty"`
	SpeciesRef     string           `json:"speciesRef,omitempty"`
	CommonName     string           `json:"commonName,omitempty"`
	ScientificName string           `json:"scientificName,omitempty"`
	ObservedAt     time.Time        `json:"observedAt"`
	Location       *Location        `json:"location,omitempty"`
	Weather        *WeatherSnapshot `json:"weather,omitempty"`
	Individuals    int              `json:"individuals,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Verified       bool             `json:"verified"`
}

// Identified reports whether the record names a species in any way.
func (r *SightingRecord) Identified() bool {
	return r.SpeciesRef != "" || r.CommonName != "" || r.ScientificName != ""
}

// MonthlyTimeline holds one count per calendar month of Year, January first.
type MonthlyTimeline struct {
	Year    int     `json:"year"`
	Monthly [12]int `json:"monthly"`
	Total   int     `json:"total"`
}

// add records one sighting in month m. Total moves with the monthly counter
// so it always equals the sum of Monthly.
func (t *MonthlyTimeline) add(m time.Month) {
	t.Monthly[m-1]++
	t.Total++
}

// SpeciesCount is a species annotated with its sighting count.
type SpeciesCount struct {
	Species Species `json:"species"`
	Count   int     `json:"count"`
}

// RankedSpecies is one entry of a ranking.
type RankedSpecies struct {
	Name               string         `json:"name"`
	ScientificName     string         `json:"scientificName,omitempty"`
	Count              int            `json:"count"`
	ConservationStatus string         `json:"conservationStatus,omitempty"`
	Status             PresenceStatus `json:"status,omitempty"`
}

// StatusDistribution sums sighting counts per presence status.
type StatusDistribution struct {
	Resident  int `json:"resident"`
	Migratory int `json:"migratory"`
	Rare      int `json:"rare"`
}

// Total returns the sum of the three buckets.
func (d StatusDistribution) Total() int {
	return d.Resident + d.Migratory + d.Rare
}

// AggregatedAnalytics is the full dashboard payload for one year.
type AggregatedAnalytics struct {
	Year               int                `json:"year"`
	TotalSpecies       int                `json:"totalSpecies"`
	TotalSightings     int                `json:"totalSightings"`
	TopSpecies         []RankedSpecies    `json:"topSpecies"`
	RareSpecies        []RankedSpecies    `json:"rareSpecies"`
	Timeline           MonthlyTimeline    `json:"timeline"`
	Seasonal           SeasonalBuckets    `json:"seasonal"`
	StatusDistribution StatusDistribution `json:"statusDistribution"`

	Source         string `json:"source"`
	DatasetVersion string `json:"datasetVersion,omitempty"`
	SkippedRecords int    `json:"skippedRecords"`

	Skipped []MalformedRecord `json:"-"`
}
