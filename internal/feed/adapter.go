package feed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/ebird"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// ObservationSource is the subset of the eBird client the adapter needs.
type ObservationSource interface {
	RecentObservations(ctx context.Context, locationID string, backDays int) ([]ebird.Observation, error)
	RecentNotable(ctx context.Context, regionCode string, backDays int) ([]ebird.Observation, error)
}

// Config controls which hotspot is fetched and for how long.
type Config struct {
	HotspotID string
	Region    string
	BackDays  int
	Timeout   time.Duration
}

// Adapter fetches recent hotspot observations and converts them to
// sighting records. A nil source means the feed is not configured.
type Adapter struct {
	source ObservationSource
	config Config
	log    logger.Logger
	now    func() time.Time
}

// obsDt layouts in the order they are tried. eBird reports local hotspot
// time without a zone; it is read as UTC.
var obsDtLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// NewAdapter creates an adapter. source may be nil.
func NewAdapter(source ObservationSource, config Config, log logger.Logger) *Adapter {
	if config.BackDays < 1 || config.BackDays > ebird.MaxBackDays {
		config.BackDays = ebird.MaxBackDays
	}
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	}
	return &Adapter{
		source: source,
		config: config,
		log:    log.Module("feed"),
		now:    time.Now,
	}
}

// Configured reports whether the adapter has a source to fetch from.
func (a *Adapter) Configured() bool {
	return a != nil && a.source != nil
}

// Fetch returns the hotspot's recent observations that fall in year.
// It never returns an error: every failure becomes Unavailable, and a fetch
// that outlives the configured timeout is treated the same way.
func (a *Adapter) Fetch(ctx context.Context, year int) Result {
	if !a.Configured() {
		return Unavailable{Reason: errors.Newf("observation feed is not configured").
			Component("feed").
			Category(errors.CategoryConfiguration).
			Build()}
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	obs, err := a.source.RecentObservations(ctx, a.config.HotspotID, a.config.BackDays)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		a.log.Warn("observation feed unavailable",
			logger.String("hotspot", a.config.HotspotID),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return Unavailable{Reason: err}
	}

	records := make([]analytics.SightingRecord, 0, len(obs))
	for i := range obs {
		r := toRecord(&obs[i], i)
		// Records with unparseable dates are kept with a zero time so the
		// aggregation can count them as skipped.
		if !r.ObservedAt.IsZero() && r.ObservedAt.Year() != year {
			continue
		}
		records = append(records, r)
	}

	a.log.Debug("observation feed fetched",
		logger.String("hotspot", a.config.HotspotID),
		logger.Int("observations", len(obs)),
		logger.Int("in_year", len(records)),
		logger.Int("year", year))

	return Success{Records: records, FetchedAt: a.now().UTC()}
}

// Notable returns recent notable observations for the configured region.
// An unconfigured or failing feed yields an empty list.
func (a *Adapter) Notable(ctx context.Context) []analytics.SightingRecord {
	records := []analytics.SightingRecord{}
	if !a.Configured() || a.config.Region == "" {
		return records
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	obs, err := a.source.RecentNotable(ctx, a.config.Region, a.config.BackDays)
	if err != nil {
		a.log.Warn("notable observations unavailable",
			logger.String("region", a.config.Region),
			logger.Error(err))
		return records
	}

	for i := range obs {
		records = append(records, toRecord(&obs[i], i))
	}
	return records
}

// toRecord converts one observation. An unparseable obsDt leaves
// ObservedAt zero.
func toRecord(o *ebird.Observation, index int) analytics.SightingRecord {
	lat, lon := o.Latitude, o.Longitude
	id := fmt.Sprintf("ebird-%s-%s", o.SubID, o.SpeciesCode)
	if o.SubID == "" {
		id = fmt.Sprintf("ebird-%d-%s", index, o.SpeciesCode)
	}

	return analytics.SightingRecord{
		ID:             id,
		CommonName:     o.CommonName,
		ScientificName: o.ScientificName,
		ObservedAt:     parseObsDt(o.ObsDt),
		Location: &analytics.Location{
			Name:      o.LocationName,
			Latitude:  &lat,
			Longitude: &lon,
		},
		Individuals: o.Count(),
		Verified:    o.ObsReviewed && o.ObsValid,
	}
}

func parseObsDt(value string) time.Time {
	for _, layout := range obsDtLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
