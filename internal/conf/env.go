// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVars   []string           // Environment variable names, first set one wins
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", []string{"SANCTUARY_DEBUG"}, validateEnvBool},
		{"main.timezone", []string{"SANCTUARY_TIMEZONE", "TZ"}, nil},

		{"webserver.listen", []string{"SANCTUARY_LISTEN"}, nil},

		{"database.type", []string{"SANCTUARY_DATABASE_TYPE"}, validateEnvDatabaseType},
		{"database.sqlite.path", []string{"SANCTUARY_SQLITE_PATH"}, nil},
		{"database.mysql.host", []string{"SANCTUARY_MYSQL_HOST"}, nil},
		{"database.mysql.port", []string{"SANCTUARY_MYSQL_PORT"}, validateEnvPort},
		{"database.mysql.username", []string{"SANCTUARY_MYSQL_USERNAME"}, nil},
		{"database.mysql.password", []string{"SANCTUARY_MYSQL_PASSWORD"}, nil},
		{"database.mysql.database", []string{"SANCTUARY_MYSQL_DATABASE"}, nil},

		{"ebird.enabled", []string{"SANCTUARY_EBIRD_ENABLED"}, validateEnvBool},
		{"ebird.apikey", []string{"SANCTUARY_EBIRD_APIKEY", "EBIRD_API_KEY"}, nil},
		{"ebird.hotspotid", []string{"SANCTUARY_EBIRD_HOTSPOT"}, nil},
		{"ebird.backdays", []string{"SANCTUARY_EBIRD_BACKDAYS"}, validateEnvBackDays},

		{"analytics.topn", []string{"SANCTUARY_ANALYTICS_TOPN"}, validateEnvPositiveInt},
		{"analytics.fallbackpath", []string{"SANCTUARY_FALLBACK_PATH"}, nil},

		{"events.mqtt.enabled", []string{"SANCTUARY_MQTT_ENABLED"}, validateEnvBool},
		{"events.mqtt.broker", []string{"SANCTUARY_MQTT_BROKER"}, nil},
		{"events.mqtt.username", []string{"SANCTUARY_MQTT_USERNAME"}, nil},
		{"events.mqtt.password", []string{"SANCTUARY_MQTT_PASSWORD"}, nil},
		{"events.kafka.enabled", []string{"SANCTUARY_KAFKA_ENABLED"}, validateEnvBool},

		{"telemetry.sentry.enabled", []string{"SANCTUARY_SENTRY_ENABLED"}, validateEnvBool},
		{"telemetry.sentry.dsn", []string{"SANCTUARY_SENTRY_DSN", "SENTRY_DSN"}, nil},

		{"logging.defaultlevel", []string{"SANCTUARY_LOG_LEVEL"}, validateEnvLogLevel},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		input := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := v.BindEnv(input...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", strings.Join(binding.EnvVars, ","), err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, envVar := range binding.EnvVars {
			envValue := os.Getenv(envVar)
			if envValue == "" {
				continue
			}
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", envVar, envValue, err))
			}
			break
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch value {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("database type must be %q or %q", DatabaseSQLite, DatabaseMySQL)
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvBackDays(value string) error {
	days, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid back days: %w", err)
	}
	if days < 1 || days > MaxBackDays {
		return fmt.Errorf("back days must be between 1 and %d, got %d", MaxBackDays, days)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !isValidLogLevel(value) {
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error")
	}
	return nil
}
