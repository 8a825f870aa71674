package datastore

import (
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// MySQLStore is the shared backend for a multi-user deployment.
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	cfg := settings.Database.MySQL
	if cfg.Host == "" || cfg.Database == "" || cfg.Username == "" {
		return storeError(errors.NewStd("mysql host, database and username are required"),
			errors.CategoryConfiguration, "setting", "database.mysql")
	}
	return nil
}

// mysqlDSN builds the connection string. Times are read and written in UTC.
func mysqlDSN(settings *conf.Settings) string {
	cfg := settings.Database.MySQL

	dsn := gomysql.NewConfig()
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	cfg := store.Settings.Database.MySQL
	db, err := gorm.Open(mysql.Open(mysqlDSN(store.Settings)), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(store.log, store.Settings.Database.SlowThreshold),
	})
	if err != nil {
		store.log.Error("failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.Int("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return dbError(err, "open", "mysql", "host", cfg.Host, "database", cfg.Database)
	}

	store.DB = db
	store.log.Info("mysql database opened",
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database))
	return performAutoMigration(db, store.log, conf.DatabaseMySQL)
}

func (store *MySQLStore) Close() error {
	return closeGorm(store.DB, "mysql")
}
