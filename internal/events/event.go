// Package events publishes sighting notifications to message brokers.
//
// Publishing is fire-and-forget from the caller's point of view: a failed
// publish is reported and counted but never rolls back the sighting that
// triggered it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

// TypeSightingCreated is the event type of SightingCreated.
const TypeSightingCreated = "sighting.created"

// SightingCreated announces a newly recorded sighting.
type SightingCreated struct {
	Type       string                   `json:"type"`
	OccurredAt time.Time                `json:"occurredAt"`
	Sighting   analytics.SightingRecord `json:"sighting"`
}

// NewSightingCreated wraps record in an event stamped at.
func NewSightingCreated(record analytics.SightingRecord, at time.Time) SightingCreated {
	return SightingCreated{
		Type:       TypeSightingCreated,
		OccurredAt: at.UTC(),
		Sighting:   record,
	}
}

// Key is the partition key of the event.
func (e SightingCreated) Key() string {
	return e.Sighting.ID
}

func (e SightingCreated) encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.New(err).
			Component("events").
			Category(errors.CategoryValidation).
			Context("operation", "encode_event").
			Context("sighting_id", e.Sighting.ID).
			Build()
	}
	return data, nil
}

// Publisher delivers sighting events.
type Publisher interface {
	// Name identifies the publisher in logs and metrics.
	Name() string
	Publish(ctx context.Context, event SightingCreated) error
	Close() error
}

// Metrics records publisher outcomes. *metrics.EventMetrics implements it.
type Metrics interface {
	metrics.Recorder
	UpdateConnectionStatus(publisher string, connected bool)
}

type noopMetrics struct{ metrics.NoOpRecorder }

func (noopMetrics) UpdateConnectionStatus(string, bool) {}

func orNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// recordPublish counts one publish attempt.
func recordPublish(m Metrics, publisher string, start time.Time, err error) {
	m.RecordDuration(publisher, time.Since(start).Seconds())
	if err != nil {
		m.RecordOperation(publisher, metrics.StatusError)
		category := string(errors.CategoryGeneric)
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			category = ee.GetCategory()
		}
		m.RecordError(publisher, category)
		return
	}
	m.RecordOperation(publisher, metrics.StatusSuccess)
}
