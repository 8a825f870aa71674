package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// memoryPath keeps the whole database in process memory. Tests and the
// demo mode use it.
const memoryPath = ":memory:"

// SQLiteStore is the single-file backend used on a field laptop or a
// small server.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// sqliteDSN enables foreign keys and a busy timeout. File databases also
// use WAL so API reads do not block on a running seed.
func sqliteDSN(path string) string {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if path != memoryPath {
		dsn += "&_journal_mode=WAL"
	}
	return dsn
}

func (store *SQLiteStore) Open() error {
	path := store.Settings.Database.SQLite.Path
	if path == "" {
		return storeError(errors.NewStd("sqlite path is required"), errors.CategoryConfiguration,
			"setting", "database.sqlite.path")
	}
	if dir := filepath.Dir(path); path != memoryPath && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return storeError(err, errors.CategoryFileIO, "path", path)
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(store.log, store.Settings.Database.SlowThreshold),
	})
	if err != nil {
		return dbError(err, "open", "sqlite", "path", path)
	}

	if path == memoryPath {
		// each pooled connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return dbError(err, "open", "sqlite", "path", path)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	store.DB = db
	store.log.Info("sqlite database opened", logger.String("path", path))
	return performAutoMigration(db, store.log, conf.DatabaseSQLite)
}

func (store *SQLiteStore) Close() error {
	return closeGorm(store.DB, "sqlite")
}

// closeGorm releases the connection pool behind db.
func closeGorm(db *gorm.DB, backend string) error {
	if db == nil {
		return errNotOpen()
	}
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		return dbError(err, "close", backend)
	}
	return nil
}
