package events

import (
	"context"

	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// Multi fans an event out to every publisher. Each publisher is tried even
// when an earlier one fails; the failures are joined.
type Multi struct {
	publishers []Publisher
	log        logger.Logger
}

// NewMulti combines publishers.
func NewMulti(log logger.Logger, publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers, log: log}
}

func (m *Multi) Name() string { return "multi" }

// Publish sends event to all publishers.
func (m *Multi) Publish(ctx context.Context, event SightingCreated) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			m.log.Warn("sighting event not delivered",
				logger.String("publisher", p.Name()),
				logger.String("sighting_id", event.Sighting.ID),
				logger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all publishers.
func (m *Multi) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped publishers.
func (m *Multi) Len() int {
	return len(m.publishers)
}
