// model.go this code defines the data model for the sighting record store
package datastore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Species represents a catalogued taxon
type Species struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	CommonName         string    `gorm:"size:191;not null;uniqueIndex:idx_species_common_name"`
	ScientificName     string    `gorm:"size:191;index:idx_species_scientific_name"`
	ConservationStatus string    `gorm:"size:64"`
	PresenceStatus     string    `gorm:"size:16;index"` // Resident, Migratory, Rare or empty
	CreatedAt          time.Time `gorm:"index"`
}

// Sighting represents one observed occurrence of a species
type Sighting struct {
	ID         string    `gorm:"primaryKey;size:36"`
	UserID     string    `gorm:"size:64;index:idx_sightings_user"`
	SpeciesID  *string   `gorm:"size:36;index:idx_sightings_species"` // nil for unidentified sightings
	Species    *Species  `gorm:"foreignKey:SpeciesID;constraint:OnDelete:SET NULL"`

	// Free-text identification, kept when the name is not in the catalog
	CommonName     string `gorm:"size:191"`
	ScientificName string `gorm:"size:191"`

	ObservedAt time.Time `gorm:"not null;index:idx_sightings_observed_at"`

	LocationName string   `gorm:"size:191"`
	Latitude     *float64 `gorm:"index:idx_sightings_lat_lon"`
	Longitude    *float64 `gorm:"index:idx_sightings_lat_lon"`

	// Weather at observation time, carried for display only
	TemperatureC     *float64
	HumidityPct      *float64
	WeatherCondition string `gorm:"size:64"`

	Individuals int
	Notes       string `gorm:"type:text"`
	Verified    bool   `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Hotspot represents a named location known for bird activity
type Hotspot struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:191;not null" json:"name"`
	EBirdID     string    `gorm:"column:ebird_id;size:32;index" json:"ebirdId,omitempty"`
	Latitude    float64   `gorm:"index:idx_hotspots_lat_lon" json:"latitude"`
	Longitude   float64   `gorm:"index:idx_hotspots_lat_lon" json:"longitude"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
}

// BeforeCreate assigns a UUID when none is set
func (s *Species) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when none is set
func (s *Sighting) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when none is set
func (h *Hotspot) BeforeCreate(_ *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
