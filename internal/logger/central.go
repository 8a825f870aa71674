package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Embedded zoneinfo so Asia/Kolkata resolves on minimal images.
	_ "time/tzdata"
)

// CentralLogger owns the log outputs and hands out module loggers whose
// levels come from LoggingConfig.ModuleLevels.
type CentralLogger struct {
	handler      slog.Handler
	defaultLevel slog.Level
	moduleLevels map[string]slog.Level

	mu   sync.Mutex
	file *os.File
}

// NewCentralLogger opens the configured outputs. cfg is completed with
// defaults in place. With every output disabled, logs go to stdout.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, errors.New("logging config is required")
	}
	cfg.withDefaults()

	tz := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("logging timezone %q: %w", cfg.Timezone, err)
		}
		tz = loc
	}

	cl := &CentralLogger{
		defaultLevel: toSlog(LogLevel(cfg.DefaultLevel)),
		moduleLevels: make(map[string]slog.Level, len(cfg.ModuleLevels)),
	}
	for module, level := range cfg.ModuleLevels {
		cl.moduleLevels[module] = toSlog(LogLevel(level))
	}

	var sinks fanout
	if cfg.Console.Enabled {
		sinks = append(sinks, textHandler(os.Stdout, toSlog(LogLevel(cfg.Console.Level)), tz))
	}
	if cfg.FileOutput.Enabled {
		f, err := openLogFile(cfg.FileOutput.Path)
		if err != nil {
			return nil, err
		}
		cl.file = f
		sinks = append(sinks, jsonHandler(f, toSlog(LogLevel(cfg.FileOutput.Level))))
	}

	switch len(sinks) {
	case 0:
		cl.handler = textHandler(os.Stdout, cl.defaultLevel, tz)
	case 1:
		cl.handler = sinks[0]
	default:
		cl.handler = sinks
	}
	return cl, nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Module returns a logger for a top-level module such as "datastore".
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}
	level, ok := cl.moduleLevels[name]
	if !ok {
		level = cl.defaultLevel
	}
	return &scoped{handler: cl.handler, floor: level, module: name}
}

// Flush syncs the log file, if any.
func (cl *CentralLogger) Flush() error {
	if cl == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.file == nil {
		return nil
	}
	return cl.file.Sync()
}

// Close syncs and closes the log file. Later calls are no-ops.
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.file == nil {
		return nil
	}
	err := errors.Join(cl.file.Sync(), cl.file.Close())
	cl.file = nil
	return err
}
