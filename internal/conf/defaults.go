// defaults.go: default values for the configuration settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default eBird hotspot for Vedanthangal Bird Sanctuary
const (
	DefaultHotspotID = "L1076228"
	DefaultRegion    = "IN-TN"
	MaxBackDays      = 30
)

// setDefaultConfig sets default values for the configuration settings
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "Vedanthangal Bird Sanctuary")
	v.SetDefault("main.timezone", "Asia/Kolkata")

	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.readtimeout", 15*time.Second)
	v.SetDefault("webserver.writetimeout", 30*time.Second)
	v.SetDefault("webserver.corsorigins", []string{})

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.slowthreshold", 200*time.Millisecond)
	v.SetDefault("database.sqlite.path", "sanctuary.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "sanctuary")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "sanctuary")

	v.SetDefault("ebird.enabled", true)
	v.SetDefault("ebird.apikey", "")
	v.SetDefault("ebird.hotspotid", DefaultHotspotID)
	v.SetDefault("ebird.region", DefaultRegion)
	v.SetDefault("ebird.backdays", MaxBackDays)
	v.SetDefault("ebird.timeout", 10*time.Second)
	v.SetDefault("ebird.cachettl", 30*time.Minute)
	v.SetDefault("ebird.ratelimitms", 1000)

	v.SetDefault("analytics.topn", 5)
	v.SetDefault("analytics.cachettl", 5*time.Minute)
	v.SetDefault("analytics.fallbackpath", "")

	v.SetDefault("events.mqtt.enabled", false)
	v.SetDefault("events.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("events.mqtt.clientid", "sanctuary")
	v.SetDefault("events.mqtt.topic", "sanctuary/sightings")
	v.SetDefault("events.mqtt.qos", 1)
	v.SetDefault("events.mqtt.retain", false)
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "sanctuary.sightings")

	v.SetDefault("telemetry.prometheus.enabled", true)
	v.SetDefault("telemetry.prometheus.path", "/metrics")
	v.SetDefault("telemetry.sentry.enabled", false)
	v.SetDefault("telemetry.sentry.dsn", "")
	v.SetDefault("telemetry.sentry.environment", "production")

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/sanctuary.log")
	v.SetDefault("logging.fileoutput.level", "info")
}
