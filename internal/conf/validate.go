// validate.go: settings validation
package conf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateWebServerSettings,
		validateDatabaseSettings,
		validateEBirdSettings,
		validateAnalyticsSettings,
		validateEventsSettings,
		validateTelemetrySettings,
		validateLoggingSettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateWebServerSettings(s *Settings) []string {
	var errs []string
	if strings.TrimSpace(s.WebServer.Listen) == "" {
		errs = append(errs, "webserver.listen must not be empty")
	}
	if s.WebServer.ReadTimeout < 0 || s.WebServer.WriteTimeout < 0 {
		errs = append(errs, "webserver timeouts must not be negative")
	}
	return errs
}

func validateDatabaseSettings(s *Settings) []string {
	var errs []string
	switch s.Database.Type {
	case DatabaseSQLite:
		if s.Database.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path must be set when database.type is sqlite")
		}
	case DatabaseMySQL:
		if s.Database.MySQL.Host == "" || s.Database.MySQL.Database == "" {
			errs = append(errs, "database.mysql.host and database.mysql.database must be set when database.type is mysql")
		}
		if s.Database.MySQL.Port < 1 || s.Database.MySQL.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.mysql.port must be between 1 and 65535, got %d", s.Database.MySQL.Port))
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, s.Database.Type))
	}
	return errs
}

func validateEBirdSettings(s *Settings) []string {
	var errs []string
	if s.EBird.HotspotID == "" {
		errs = append(errs, "ebird.hotspotid must not be empty")
	}
	if s.EBird.BackDays < 1 || s.EBird.BackDays > MaxBackDays {
		errs = append(errs, fmt.Sprintf("ebird.backdays must be between 1 and %d, got %d", MaxBackDays, s.EBird.BackDays))
	}
	if s.EBird.Timeout <= 0 {
		errs = append(errs, "ebird.timeout must be positive")
	}
	if s.EBird.RateLimitMS < 0 {
		errs = append(errs, "ebird.ratelimitms must not be negative")
	}
	return errs
}

func validateAnalyticsSettings(s *Settings) []string {
	var errs []string
	if s.Analytics.TopN < 1 {
		errs = append(errs, fmt.Sprintf("analytics.topn must be at least 1, got %d", s.Analytics.TopN))
	}
	if s.Analytics.CacheTTL < 0 {
		errs = append(errs, "analytics.cachettl must not be negative")
	}
	return errs
}

func validateEventsSettings(s *Settings) []string {
	var errs []string
	mqtt := s.Events.MQTT
	if mqtt.Enabled {
		if u, err := url.Parse(mqtt.Broker); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("events.mqtt.broker must be a URL like tcp://host:1883, got %q", mqtt.Broker))
		}
		if mqtt.Topic == "" {
			errs = append(errs, "events.mqtt.topic must not be empty")
		}
		if mqtt.QoS < 0 || mqtt.QoS > 2 {
			errs = append(errs, fmt.Sprintf("events.mqtt.qos must be 0, 1 or 2, got %d", mqtt.QoS))
		}
	}
	kafka := s.Events.Kafka
	if kafka.Enabled {
		if len(kafka.Brokers) == 0 {
			errs = append(errs, "events.kafka.brokers must not be empty")
		}
		if kafka.Topic == "" {
			errs = append(errs, "events.kafka.topic must not be empty")
		}
	}
	return errs
}

func validateTelemetrySettings(s *Settings) []string {
	var errs []string
	if s.Telemetry.Sentry.Enabled && s.Telemetry.Sentry.DSN == "" {
		errs = append(errs, "telemetry.sentry.dsn must be set when sentry is enabled")
	}
	if s.Telemetry.Prometheus.Enabled && !strings.HasPrefix(s.Telemetry.Prometheus.Path, "/") {
		errs = append(errs, "telemetry.prometheus.path must start with /")
	}
	return errs
}

func validateLoggingSettings(s *Settings) []string {
	var errs []string
	if s.Logging.DefaultLevel != "" && !isValidLogLevel(s.Logging.DefaultLevel) {
		errs = append(errs, fmt.Sprintf("logging.defaultlevel %q is not a valid level", s.Logging.DefaultLevel))
	}
	for module, level := range s.Logging.ModuleLevels {
		if !isValidLogLevel(level) {
			errs = append(errs, fmt.Sprintf("logging.modulelevels.%s %q is not a valid level", module, level))
		}
	}
	return errs
}

func isValidLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
