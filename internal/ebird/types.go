// Package ebird provides a client for the eBird API v2 observation endpoints
package ebird

import "time"

// Observation is one entry of an eBird recent-observations response
type Observation struct {
	SpeciesCode     string  `json:"speciesCode"`
	CommonName      string  `json:"comName"`
	ScientificName  string  `json:"sciName"`
	LocationID      string  `json:"locId"`
	LocationName    string  `json:"locName"`
	ObsDt           string  `json:"obsDt"`             // "2006-01-02 15:04" or "2006-01-02", local to the hotspot
	HowMany         *int    `json:"howMany,omitempty"` // absent when the observer reported "X"
	Latitude        float64 `json:"lat"`
	Longitude       float64 `json:"lng"`
	ObsValid        bool    `json:"obsValid"`
	ObsReviewed     bool    `json:"obsReviewed"`
	LocationPrivate bool    `json:"locationPrivate"`
	SubID           string  `json:"subId"`
}

// Count returns the reported number of individuals, 1 when not reported
func (o *Observation) Count() int {
	if o.HowMany == nil || *o.HowMany < 1 {
		return 1
	}
	return *o.HowMany
}

// Config holds configuration for the eBird client
type Config struct {
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Timeout     time.Duration `json:"timeout"`
	CacheTTL    time.Duration `json:"cache_ttl"`
	RateLimitMS int           `json:"rate_limit_ms"` // Milliseconds between requests
}

// Error represents an eBird API error response
type Error struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	return e.Detail
}

// MaxBackDays is the longest look-back window the API accepts
const MaxBackDays = 30

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.ebird.org/v2",
		Timeout:     10 * time.Second,
		CacheTTL:    30 * time.Minute, // recent observations change through the day
		RateLimitMS: 1000,
	}
}
