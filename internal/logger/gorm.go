package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerAdapter routes gorm's logging into a Logger. Statements are
// logged at trace, so they appear only when the datastore module level is
// "trace". Failed and slow statements are logged at warn.
type GormLoggerAdapter struct {
	log  Logger
	slow time.Duration
}

var _ gormlogger.Interface = (*GormLoggerAdapter)(nil)

// NewGormLoggerAdapter wraps log. A zero slow threshold disables slow
// statement warnings.
func NewGormLoggerAdapter(log Logger, slow time.Duration) *GormLoggerAdapter {
	if log == nil {
		log = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &GormLoggerAdapter{log: log, slow: slow}
}

// LogMode ignores gorm's level; filtering happens in the Logger.
func (a *GormLoggerAdapter) LogMode(gormlogger.LogLevel) gormlogger.Interface { return a }

func (a *GormLoggerAdapter) Info(_ context.Context, format string, args ...any) {
	a.log.Debug(fmt.Sprintf(format, args...))
}

func (a *GormLoggerAdapter) Warn(_ context.Context, format string, args ...any) {
	a.log.Warn(fmt.Sprintf(format, args...))
}

func (a *GormLoggerAdapter) Error(_ context.Context, format string, args ...any) {
	a.log.Error(fmt.Sprintf(format, args...))
}

// Trace is called by gorm after every statement. A missing row is an
// ordinary outcome for species lookups and is not treated as a failure.
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	stmt, rows := fc()
	fields := []Field{
		String("sql", stmt),
		Int64("rows", rows),
		Duration("elapsed", elapsed),
	}
	log := a.log.WithContext(ctx)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("statement failed", append(fields, Error(err))...)
		return
	}
	if a.slow > 0 && elapsed > a.slow {
		log.Warn("slow statement", append(fields, Duration("threshold", a.slow))...)
		return
	}
	log.Trace("statement", fields...)
}
