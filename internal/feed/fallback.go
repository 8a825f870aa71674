package feed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/errors"
)

//go:embed fallback/vedanthangal_2025.json
var embeddedFallback []byte

// Fallback is the versioned dataset served when the feed is unavailable.
//
// Sightings are stored as month and day so the dataset describes a typical
// year at the sanctuary. Records materializes them in the requested year.
type Fallback struct {
	Version   string              `json:"version"`
	HotspotID string              `json:"hotspotId"`
	Location  analytics.Location  `json:"location"`
	Species   []analytics.Species `json:"species"`
	Sightings []SightingGroup     `json:"sightings"`
}

// SightingGroup is a number of occurrences of one species on one day.
type SightingGroup struct {
	Species     string     `json:"species"`
	Month       time.Month `json:"month"`
	Day         int        `json:"day"`
	Occurrences int        `json:"occurrences"`
}

// observationHour is the UTC hour fallback records are stamped with.
const observationHour = 6

// DefaultFallback returns the embedded dataset.
func DefaultFallback() (*Fallback, error) {
	return ParseFallback(embeddedFallback)
}

// LoadFallback reads a dataset from path on fs, or returns the embedded one
// when path is empty.
func LoadFallback(fs afero.Fs, path string) (*Fallback, error) {
	if path == "" {
		return DefaultFallback()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.New(err).
			Component("feed").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	fb, err := ParseFallback(data)
	if err != nil {
		return nil, errors.New(err).
			Component("feed").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	return fb, nil
}

// ParseFallback decodes and validates a dataset.
func ParseFallback(data []byte) (*Fallback, error) {
	var fb Fallback
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, errors.New(err).
			Component("feed").
			Category(errors.CategoryFileParsing).
			Build()
	}
	if err := fb.validate(); err != nil {
		return nil, err
	}
	return &fb, nil
}

func (f *Fallback) validate() error {
	if f.Version == "" {
		return fallbackError("dataset has no version")
	}

	known := make(map[string]bool, len(f.Species))
	for _, s := range f.Species {
		if s.ID == "" || s.CommonName == "" {
			return fallbackError("species entry needs an id and a common name")
		}
		if known[s.ID] {
			return fallbackError(fmt.Sprintf("duplicate species id %q", s.ID))
		}
		if s.PresenceStatus != "" && !s.PresenceStatus.Valid() {
			return fallbackError(fmt.Sprintf("species %q has unknown presence status %q", s.ID, s.PresenceStatus))
		}
		known[s.ID] = true
	}

	for i, g := range f.Sightings {
		switch {
		case !known[g.Species]:
			return fallbackError(fmt.Sprintf("sighting group %d references unknown species %q", i, g.Species))
		case g.Month < time.January || g.Month > time.December:
			return fallbackError(fmt.Sprintf("sighting group %d has month %d", i, g.Month))
		case !validDay(g.Month, g.Day):
			return fallbackError(fmt.Sprintf("sighting group %d has day %d for %s", i, g.Day, g.Month))
		case g.Occurrences < 1:
			return fallbackError(fmt.Sprintf("sighting group %d has %d occurrences", i, g.Occurrences))
		}
	}
	return nil
}

// validDay rejects days that do not exist in every year, including 29 Feb.
func validDay(m time.Month, day int) bool {
	if day < 1 {
		return false
	}
	t := time.Date(2001, m, day, 0, 0, 0, 0, time.UTC)
	return t.Month() == m && t.Day() == day
}

func fallbackError(msg string) error {
	return errors.Newf("invalid fallback dataset: %s", msg).
		Component("feed").
		Category(errors.CategoryValidation).
		Build()
}

// Total returns the number of records the dataset expands to in any year.
func (f *Fallback) Total() int {
	n := 0
	for _, g := range f.Sightings {
		n += g.Occurrences
	}
	return n
}

// Records expands the sighting groups into one record per occurrence dated
// in year. The expansion is deterministic: the same year always yields the
// same IDs in the same order.
func (f *Fallback) Records(year int) []analytics.SightingRecord {
	if f == nil {
		return []analytics.SightingRecord{}
	}

	byID := make(map[string]analytics.Species, len(f.Species))
	for _, s := range f.Species {
		byID[s.ID] = s
	}

	records := make([]analytics.SightingRecord, 0, f.Total())
	for _, g := range f.Sightings {
		s := byID[g.Species]
		observedAt := time.Date(year, g.Month, g.Day, observationHour, 0, 0, 0, time.UTC)
		for i := 0; i < g.Occurrences; i++ {
			loc := f.Location
			records = append(records, analytics.SightingRecord{
				ID:             fmt.Sprintf("fallback-%d-%04d", year, len(records)+1),
				SpeciesRef:     s.ID,
				CommonName:     s.CommonName,
				ScientificName: s.ScientificName,
				ObservedAt:     observedAt,
				Location:       &loc,
				Individuals:    1,
				Verified:       true,
			})
		}
	}
	return records
}
