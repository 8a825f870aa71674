package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter receives every error built while it is enabled.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	reporterMu         sync.RWMutex
	telemetryReporter  TelemetryReporter
	hasActiveReporting atomic.Bool
)

// SetTelemetryReporter installs the process-wide reporter. Passing nil, or a
// disabled reporter, turns reporting off.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	telemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

func GetTelemetryReporter() TelemetryReporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return telemetryReporter
}

func reportToTelemetry(ee *EnhancedError) {
	if reporter := GetTelemetryReporter(); reporter != nil && reporter.IsEnabled() {
		reporter.ReportError(ee)
	}
}

// SentryReporter forwards errors to the global Sentry hub. Messages and
// string context values are scrubbed first.
type SentryReporter struct {
	enabled bool
}

func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

func (sr *SentryReporter) IsEnabled() bool { return sr.enabled }

func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}
	ee.MarkReported()

	component := ee.GetComponent()
	category := ee.GetCategory()
	message := ScrubMessage(fmt.Sprintf("[%s] %s", category, ee.Error()))
	level := sentryLevel(ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("category", category)
		scope.SetLevel(level)
		scope.SetFingerprint([]string{component, category})
		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = ScrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		event := sentry.NewEvent()
		event.Level = level
		event.Message = message
		event.Exception = []sentry.Exception{{
			Type:  component + "/" + category,
			Value: message,
		}}
		sentry.CaptureEvent(event)
	})
}

// sentryLevel downgrades caller mistakes and transient failures so that
// alerts fire only on faults in the service itself.
func sentryLevel(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryValidation, CategoryNotFound, CategoryCancellation:
		return sentry.LevelInfo
	case CategoryNetwork, CategoryTimeout, CategoryLimit, CategoryMalformedRecord:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

var scrubRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(https?://[^?\s]+)\?\S*`), "$1?[REDACTED]"},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|auth)[=:]\S+`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`[0-9a-fA-F]{32,}`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`(?i)(user|client)[_-]?id[=:]\S+`), "[ID_REDACTED]"},
}

// ScrubMessage strips query strings, credentials and user identifiers.
func ScrubMessage(message string) string {
	for _, rule := range scrubRules {
		message = rule.pattern.ReplaceAllString(message, rule.replacement)
	}
	return strings.TrimSpace(message)
}
