// config.go: settings struct for the sanctuary service and functions to load and dump it.
package conf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vedanthangal/sanctuary/internal/logger"
)

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Settings contains all configuration options for the sanctuary service.
type Settings struct {
	Debug bool // true to enable debug mode

	Main struct {
		Name     string // name of the deployment, shown in the health endpoint
		TimeZone string // IANA zone used to resolve the default year and current month
	}

	WebServer WebServerSettings
	Database  DatabaseSettings
	EBird     EBirdSettings
	Analytics AnalyticsSettings
	Events    EventsSettings
	Telemetry TelemetrySettings
	Logging   logger.LoggingConfig
}

// WebServerSettings configures the HTTP API listener
type WebServerSettings struct {
	Listen       string        // address for the HTTP API, e.g. ":8080"
	ReadTimeout  time.Duration // server read timeout
	WriteTimeout time.Duration // server write timeout
	CORSOrigins  []string      // allowed CORS origins, empty disables CORS middleware
}

// DatabaseSettings selects and configures the sighting record store
type DatabaseSettings struct {
	Type          string        // "sqlite" or "mysql"
	SlowThreshold time.Duration // queries slower than this are logged as warnings
	SQLite        struct {
		Path string // path to SQLite database file, ":memory:" for ephemeral stores
	}
	MySQL struct {
		Host     string
		Port     int
		Username string
		Password string
		Database string
	}
}

// EBirdSettings configures the eBird observation feed
type EBirdSettings struct {
	Enabled     bool          // false forces the fallback dataset
	APIKey      string        // eBird API token
	HotspotID   string        // hotspot whose recent observations are fetched
	Region      string        // region code for notable observations
	BackDays    int           // look-back window in days, at most 30
	Timeout     time.Duration // upper bound for one feed fetch including retries
	CacheTTL    time.Duration // client response cache TTL
	RateLimitMS int           // minimum spacing between outbound requests
}

// AnalyticsSettings configures the aggregation service
type AnalyticsSettings struct {
	TopN         int           // number of entries in top and rare rankings
	CacheTTL     time.Duration // response cache TTL, 0 disables caching
	FallbackPath string        // optional JSON file replacing the embedded fallback dataset
}

// MQTTSettings configures publishing of sighting events to an MQTT broker
type MQTTSettings struct {
	Enabled  bool
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      int
	Retain   bool
}

// KafkaSettings configures publishing of sighting events to Kafka
type KafkaSettings struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// EventsSettings groups the sighting event publishers
type EventsSettings struct {
	MQTT  MQTTSettings
	Kafka KafkaSettings
}

// TelemetrySettings configures metrics and error reporting
type TelemetrySettings struct {
	Prometheus struct {
		Enabled bool   // expose /metrics on the API server
		Path    string // route for the metrics handler
	}
	Sentry struct {
		Enabled     bool
		DSN         string
		Environment string
	}
}

// Location returns the configured time zone, UTC when unset or unknown.
func (s *Settings) Location() *time.Location {
	if s.Main.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Main.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from configFile, or from the first config.yaml found
// in the default config paths when configFile is empty. A .env file in the
// working directory is loaded into the environment first. Missing config files
// are not an error; defaults and environment variables apply.
func Load(configFile string) (*Settings, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// loadDotEnv loads KEY=value pairs from path without overriding variables
// already present in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "sanctuary"))
	}
	return append(paths, "/etc/sanctuary")
}

// WriteYAML dumps the effective settings as YAML. Secrets are masked.
func WriteYAML(w io.Writer, settings *Settings) error {
	masked := *settings
	masked.EBird.APIKey = maskSecret(masked.EBird.APIKey)
	masked.Database.MySQL.Password = maskSecret(masked.Database.MySQL.Password)
	masked.Events.MQTT.Password = maskSecret(masked.Events.MQTT.Password)
	masked.Telemetry.Sentry.DSN = maskSecret(masked.Telemetry.Sentry.DSN)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	return enc.Close()
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", 8)
}
