package logger

// LoggingConfig is the logging section of the service settings.
type LoggingConfig struct {
	DefaultLevel string            `yaml:"defaultlevel" json:"default_level"`
	Timezone     string            `yaml:"timezone" json:"timezone"` // "Local", "UTC" or an IANA name
	Console      *ConsoleOutput    `yaml:"console" json:"console"`
	FileOutput   *FileOutput       `yaml:"fileoutput" json:"file_output"`
	ModuleLevels map[string]string `yaml:"modulelevels" json:"module_levels"` // e.g. datastore: trace
}

// ConsoleOutput writes logfmt text to stdout without timestamps; the
// supervisor (systemd, docker) stamps lines itself.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Level   string `yaml:"level" json:"level"`
}

// FileOutput appends JSON lines with RFC 3339 timestamps.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Level   string `yaml:"level" json:"level"`
}

const (
	DefaultLogLevel = "info"
	DefaultLogPath  = "logs/sanctuary.log"
)

// withDefaults fills the unset sections of cfg in place.
func (cfg *LoggingConfig) withDefaults() {
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}
	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: true, Level: cfg.DefaultLevel}
	}
	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{Path: DefaultLogPath, Level: cfg.DefaultLevel}
	}
}
