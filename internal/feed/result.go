// Package feed adapts the eBird observation feed to sighting records and
// owns the versioned fallback dataset used when the feed is unavailable.
package feed

import (
	"time"

	"github.com/vedanthangal/sanctuary/internal/analytics"
)

// Result is the outcome of one feed fetch. It is either Success or
// Unavailable; no other implementations exist.
type Result interface {
	isResult()
}

// Success carries the observations the feed returned for the target year.
// Records may be empty: an empty year is still a successful answer.
type Success struct {
	Records   []analytics.SightingRecord
	FetchedAt time.Time
}

// Unavailable means the feed was unconfigured, failed, timed out or returned
// content that could not be parsed.
type Unavailable struct {
	Reason error
}

func (Success) isResult()     {}
func (Unavailable) isResult() {}

// Data source names reported with every aggregation.
const (
	SourceStore    = "store"
	SourceEBird    = "ebird"
	SourceFallback = "fallback"
)

// Dataset is the single set of records one aggregation is computed from.
type Dataset struct {
	Source  string
	Version string
	Records []analytics.SightingRecord
	// Species lists catalog entries the dataset brings along. Only the
	// fallback dataset sets it.
	Species []analytics.Species
}

// Resolve turns a feed result into a dataset for year. Success yields the
// live records and nothing else; any other result yields the fallback
// dataset and nothing else. A nil fallback is an empty dataset.
func Resolve(result Result, fallback *Fallback, year int) Dataset {
	if s, ok := result.(Success); ok {
		records := s.Records
		if records == nil {
			records = []analytics.SightingRecord{}
		}
		return Dataset{Source: SourceEBird, Records: records}
	}
	if fallback == nil {
		return Dataset{Source: SourceFallback, Records: []analytics.SightingRecord{}}
	}

	return Dataset{
		Source:  SourceFallback,
		Version: fallback.Version,
		Records: fallback.Records(year),
		Species: fallback.Species,
	}
}
