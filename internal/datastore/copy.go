package datastore

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

const (
	defaultCopyBatchSize = 1000
	maxCopyBatchSize     = 10000
	verifySampleSize     = 5
)

// CopyOptions controls a store-to-store copy.
type CopyOptions struct {
	BatchSize int  // rows per insert batch, defaults to 1000
	Clean     bool // delete target rows before copying
}

// TableStats tracks per-table copy statistics.
type TableStats struct {
	Name     string        `json:"name"`
	Copied   int64         `json:"copied"`
	Skipped  int64         `json:"skipped"` // already present in the target
	Errors   int64         `json:"errors"`  // rows in failed batches
	Duration time.Duration `json:"duration"`
}

// CopyStats summarizes a copy.
type CopyStats struct {
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Tables    []TableStats `json:"tables"`
}

// Totals sums the per-table counters.
func (s *CopyStats) Totals() (copied, skipped, failed int64) {
	for _, t := range s.Tables {
		copied += t.Copied
		skipped += t.Skipped
		failed += t.Errors
	}
	return copied, skipped, failed
}

// Copy moves every species, sighting and hotspot from source to target, for
// example from a SQLite file to MySQL. Both stores must be open. Rows keep
// their IDs and rows already in the target are skipped, so a copy can be
// rerun after a partial failure. A failed batch is counted and the copy
// continues.
func Copy(ctx context.Context, source, target Interface, opts CopyOptions, log logger.Logger) (*CopyStats, error) {
	src, err := gormDB(source)
	if err != nil {
		return nil, err
	}
	dst, err := gormDB(target)
	if err != nil {
		return nil, err
	}
	src, dst = src.WithContext(ctx), dst.WithContext(ctx)

	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCopyBatchSize
	}
	if opts.BatchSize > maxCopyBatchSize {
		return nil, validationError("batch size too large", "batchSize", opts.BatchSize)
	}
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	}
	log = log.Module("datastore")

	stats := &CopyStats{StartTime: time.Now()}

	if isMySQL(dst) {
		if err := dst.Exec("SET FOREIGN_KEY_CHECKS=0").Error; err != nil {
			return nil, dbError(err, "copy", "schema")
		}
		defer dst.Exec("SET FOREIGN_KEY_CHECKS=1")
	}

	if opts.Clean {
		// Children first
		for _, model := range []any{&Sighting{}, &Hotspot{}, &Species{}} {
			if err := dst.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return nil, dbError(err, "clean", tableName(dst, model))
			}
		}
		log.Info("target tables cleaned")
	}

	// Dependency order: species before the sightings that reference them
	copies := []func() (TableStats, error){
		func() (TableStats, error) { return copyTable[Species](ctx, src, dst, "species", opts.BatchSize, log) },
		func() (TableStats, error) { return copyTable[Sighting](ctx, src, dst, "sightings", opts.BatchSize, log) },
		func() (TableStats, error) { return copyTable[Hotspot](ctx, src, dst, "hotspots", opts.BatchSize, log) },
	}
	for _, copyFn := range copies {
		table, err := copyFn()
		stats.Tables = append(stats.Tables, table)
		if err != nil {
			return stats, err
		}
	}

	stats.EndTime = time.Now()
	copied, skipped, failed := stats.Totals()
	log.Info("store copy complete",
		logger.Int64("copied", copied),
		logger.Int64("skipped", skipped),
		logger.Int64("errors", failed),
		logger.Duration("duration", stats.EndTime.Sub(stats.StartTime)))
	return stats, nil
}

// copyTable copies one table in batches with ON CONFLICT DO NOTHING.
func copyTable[T any](ctx context.Context, src, dst *gorm.DB, name string, batchSize int, log logger.Logger) (TableStats, error) {
	start := time.Now()
	stats := TableStats{Name: name}

	var total int64
	if err := src.Model(new(T)).Count(&total).Error; err != nil {
		return stats, dbError(err, "count", name)
	}
	if total == 0 {
		log.Debug("nothing to copy", logger.String("table", name))
		stats.Duration = time.Since(start)
		return stats, nil
	}

	var processed int64
	err := src.Model(new(T)).FindInBatches(new([]T), batchSize, func(tx *gorm.DB, batch int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows := tx.Statement.Dest.(*[]T)
		n := int64(len(*rows))

		result := dst.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(rows)
		if result.Error != nil {
			stats.Errors += n
			log.Warn("copy batch failed",
				logger.String("table", name),
				logger.Int("batch", batch),
				logger.Error(result.Error))
			return nil // later batches may still succeed
		}

		stats.Copied += result.RowsAffected
		stats.Skipped += n - result.RowsAffected
		processed += n
		log.Debug("copy progress",
			logger.String("table", name),
			logger.Int64("processed", processed),
			logger.Int64("total", total))
		return nil
	}).Error
	stats.Duration = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return stats, errors.New(ctx.Err()).
				Component("datastore").
				Category(errors.CategoryCancellation).
				Context("table", name).
				Build()
		}
		return stats, dbError(err, "copy", name)
	}

	log.Info("table copied",
		logger.String("table", name),
		logger.Int64("copied", stats.Copied),
		logger.Int64("skipped", stats.Skipped),
		logger.Int64("errors", stats.Errors))
	return stats, nil
}

// VerifyCopy compares row counts of every table and the key fields of a
// sample of sightings between source and target.
func VerifyCopy(ctx context.Context, source, target Interface) error {
	src, err := gormDB(source)
	if err != nil {
		return err
	}
	dst, err := gormDB(target)
	if err != nil {
		return err
	}
	src, dst = src.WithContext(ctx), dst.WithContext(ctx)

	var mismatches []error
	for _, t := range []struct {
		name  string
		model any
	}{
		{"species", &Species{}},
		{"sightings", &Sighting{}},
		{"hotspots", &Hotspot{}},
	} {
		var srcCount, dstCount int64
		if err := src.Model(t.model).Count(&srcCount).Error; err != nil {
			return dbError(err, "verify", t.name)
		}
		if err := dst.Model(t.model).Count(&dstCount).Error; err != nil {
			return dbError(err, "verify", t.name)
		}
		if srcCount != dstCount {
			mismatches = append(mismatches, conflictError("row counts differ", t.name, [2]int64{srcCount, dstCount}))
		}
	}

	var sample []Sighting
	if err := src.Order("id").Limit(verifySampleSize).Find(&sample).Error; err != nil {
		return dbError(err, "verify", "sightings")
	}
	for i := range sample {
		want := &sample[i]
		var got Sighting
		if err := dst.First(&got, "id = ?", want.ID).Error; err != nil {
			mismatches = append(mismatches, dbError(err, "verify", "sightings", "id", want.ID))
			continue
		}
		if !sameSighting(want, &got) {
			mismatches = append(mismatches, conflictError("sighting differs in target", "id", want.ID))
		}
	}

	return errors.Join(mismatches...)
}

func sameSighting(a, b *Sighting) bool {
	return a.UserID == b.UserID &&
		ptrEqual(a.SpeciesID, b.SpeciesID) &&
		a.ObservedAt.Equal(b.ObservedAt) &&
		a.Individuals == b.Individuals &&
		a.Verified == b.Verified
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// gormDB returns the open connection behind a store created by New.
func gormDB(store Interface) (*gorm.DB, error) {
	var db *gorm.DB
	switch s := store.(type) {
	case *SQLiteStore:
		db = s.DB
	case *MySQLStore:
		db = s.DB
	default:
		return nil, errors.Newf("store %T does not expose a database connection", store).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if db == nil {
		return nil, errNotOpen()
	}
	return db, nil
}

func isMySQL(db *gorm.DB) bool {
	return db.Dialector.Name() == "mysql"
}

func tableName(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "unknown"
	}
	return stmt.Schema.Table
}
