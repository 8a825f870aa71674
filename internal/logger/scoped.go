package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"
)

// scoped is the Logger implementation. Fields added with With are
// converted once and prepended to every entry.
type scoped struct {
	handler slog.Handler
	floor   slog.Level
	module  string
	fixed   []slog.Attr
}

// NewSlogLogger returns a text logger on w without module routing. A nil
// w means stdout, a nil tz means UTC.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = os.Stdout
	}
	if tz == nil {
		tz = time.UTC
	}
	floor := toSlog(level)
	return &scoped{handler: textHandler(w, floor, tz), floor: floor}
}

func (s *scoped) Module(name string) Logger {
	child := *s
	child.module = name
	if s.module != "" {
		child.module = s.module + "." + name
	}
	child.fixed = slices.Clone(s.fixed)
	return &child
}

func (s *scoped) With(fields ...Field) Logger {
	child := *s
	child.fixed = slices.Concat(s.fixed, attrs(fields))
	return &child
}

func (s *scoped) WithContext(ctx context.Context) Logger {
	if id := traceIDFrom(ctx); id != "" {
		return s.With(String("trace_id", id))
	}
	return s
}

func (s *scoped) Trace(msg string, fields ...Field) { s.emit(slogTrace, msg, fields) }
func (s *scoped) Debug(msg string, fields ...Field) { s.emit(slog.LevelDebug, msg, fields) }
func (s *scoped) Info(msg string, fields ...Field)  { s.emit(slog.LevelInfo, msg, fields) }
func (s *scoped) Warn(msg string, fields ...Field)  { s.emit(slog.LevelWarn, msg, fields) }
func (s *scoped) Error(msg string, fields ...Field) { s.emit(slog.LevelError, msg, fields) }

func (s *scoped) Log(level LogLevel, msg string, fields ...Field) {
	s.emit(toSlog(level), msg, fields)
}

// Flush is a no-op; files are owned by the CentralLogger.
func (s *scoped) Flush() error { return nil }

func (s *scoped) emit(level slog.Level, msg string, fields []Field) {
	ctx := context.Background()
	if level < s.floor || !s.handler.Enabled(ctx, level) {
		return
	}
	rec := slog.NewRecord(time.Now(), level, msg, 0)
	if s.module != "" {
		rec.AddAttrs(slog.String("module", s.module))
	}
	rec.AddAttrs(s.fixed...)
	rec.AddAttrs(attrs(fields)...)
	_ = s.handler.Handle(ctx, rec)
}
