// Package logger is the structured logging layer of the sanctuary service,
// built on log/slog. Every component takes a Logger in its constructor and
// scopes it with Module:
//
//	central, err := logger.NewCentralLogger(&settings.Logging)
//	if err != nil {
//		return err
//	}
//	defer central.Close()
//
//	log := central.Module("feed")
//	log.Info("fallback dataset loaded", logger.String("version", v), logger.Int("records", n))
//
// Tests write to a buffer or io.Discard through NewSlogLogger.
package logger

import (
	"context"
	"log/slog"
	"strings"
)

// LogLevel names a severity. Trace sits below Debug and is used for SQL.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const slogTrace = slog.LevelDebug - 4

var slogLevels = map[LogLevel]slog.Level{
	LogLevelTrace: slogTrace,
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

// toSlog maps a level name to slog, case-insensitively. Unknown names,
// including "", mean info.
func toSlog(level LogLevel) slog.Level {
	if l, ok := slogLevels[LogLevel(strings.ToLower(string(level)))]; ok {
		return l
	}
	return slog.LevelInfo
}

// Logger is what components log through.
type Logger interface {
	// Module returns a child logger; nested modules are dot-joined.
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
	// WithContext picks up the request trace ID from ctx.
	WithContext(ctx context.Context) Logger

	Flush() error
}

type traceIDKey struct{}

// WithTraceID stores a request trace ID for WithContext to pick up.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
