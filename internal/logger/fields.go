package logger

import (
	"log/slog"
	"math"
	"time"
)

// Field is one key/value pair on a log entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field       { return Field{key, value} }
func Int(key string, value int) Field       { return Field{key, value} }
func Int64(key string, value int64) Field   { return Field{key, value} }
func Bool(key string, value bool) Field     { return Field{key, value} }
func Time(key string, value time.Time) Field { return Field{key, value} }
func Any(key string, value any) Field       { return Field{key, value} }

// Float64 values are written with three decimals, enough for coordinates
// to about a metre.
func Float64(key string, value float64) Field { return Field{key, value} }

// Duration is written in its String form, e.g. "1.5s".
func Duration(key string, value time.Duration) Field { return Field{key, value.String()} }

// Error is always keyed "error"; a nil error logs as null.
func Error(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

func (f Field) attr() slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case float64:
		return slog.Float64(f.Key, math.Round(v*1000)/1000)
	case bool:
		return slog.Bool(f.Key, v)
	case time.Time:
		return slog.Time(f.Key, v)
	default:
		return slog.Any(f.Key, v)
	}
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = f.attr()
	}
	return out
}
