// Package errors wraps the standard errors package with categorised,
// component-tagged errors. Categories drive HTTP status mapping, retry
// decisions and the error label on metrics.
package errors

import (
	"maps"
	"sync/atomic"
	"time"
)

// ComponentUnknown is the component of errors built without one.
const ComponentUnknown = "unknown"

// EnhancedError is an error tagged with the component that raised it, a
// category and free-form context. It is immutable once built apart from
// the reported flag.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Timestamp time.Time

	component string
	context   map[string]any
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string {
	if ee.Err == nil {
		return string(ee.Category)
	}
	return ee.Err.Error()
}

func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError by category and otherwise defers to
// the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return Is(ee.Err, target)
}

// GetComponent returns the component that raised the error.
func (ee *EnhancedError) GetComponent() string {
	return ee.component
}

// GetCategory returns the category as a plain string for labels and tags.
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context map, or nil when none was set.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.context))
	maps.Copy(out, ee.context)
	return out
}

// MarkReported records that the error has been sent to telemetry.
func (ee *EnhancedError) MarkReported() {
	ee.reported.Store(true)
}

func (ee *EnhancedError) IsReported() bool {
	return ee.reported.Load()
}
