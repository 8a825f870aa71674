// Package telemetry wires error reporting to Sentry.
//
// Reporting is opt-in. When enabled, every EnhancedError built with a
// category is forwarded through the errors package reporter after privacy
// filtering strips host and user identification.
package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

const defaultEnvironment = "production"

var sentryInitialized atomic.Bool

// Init configures Sentry from settings. It returns false without error when
// reporting is disabled.
func Init(settings *conf.Settings, build *buildinfo.Context, log logger.Logger) (bool, error) {
	return initWithTransport(settings, build, log, nil)
}

func initWithTransport(settings *conf.Settings, build *buildinfo.Context, log logger.Logger, transport sentry.Transport) (bool, error) {
	cfg := settings.Telemetry.Sentry
	if !cfg.Enabled {
		errors.SetTelemetryReporter(nil)
		return false, nil
	}

	environment := cfg.Environment
	if environment == "" {
		environment = defaultEnvironment
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          build.Release(),
		BeforeSend:       beforeSend,
		Transport:        transport,
	})
	if err != nil {
		return false, errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("setting", "telemetry.sentry.dsn").
			Build()
	}

	sentryInitialized.Store(true)
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))

	log.Module("telemetry").Info("error reporting enabled",
		logger.String("environment", environment),
		logger.String("release", build.Release()))
	return true, nil
}

// beforeSend drops identifying data from every event.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	return applyPrivacyFilters(event)
}

func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = errors.ScrubMessage(event.Message)
	return event
}

// Flush sends buffered events, waiting at most timeout.
func Flush(timeout time.Duration) {
	if !sentryInitialized.Load() {
		return
	}
	sentry.Flush(timeout)
}
