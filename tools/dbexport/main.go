// Package main provides a CLI tool for copying sanctuary data from SQLite
// to MySQL, for deployments moving off the default SQLite store.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/datastore"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// Version information (can be set via ldflags during build)
var version = "dev"

// Config holds the command line options.
type Config struct {
	ConfigPath string // config.yaml supplying defaults for the connections

	SQLitePath string

	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPass     string
	MySQLDatabase string

	BatchSize  int
	Clean      bool
	SkipVerify bool
	Verbose    bool
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:     "dbexport",
		Short:   "Copy sanctuary data from SQLite to MySQL",
		Version: version,
		Long: `Copy species, sightings and hotspots from a SQLite database to MySQL.

Rows keep their IDs and rows already present in MySQL are skipped, so the
copy can be rerun. Connection settings not given as flags are read from
config.yaml.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.ConfigPath, "config", "", "Path to config.yaml (for connection defaults)")
	cmd.Flags().StringVar(&cfg.SQLitePath, "sqlite-path", "", "Path to source SQLite database file")
	cmd.Flags().StringVar(&cfg.MySQLHost, "mysql-host", "", "MySQL host")
	cmd.Flags().IntVar(&cfg.MySQLPort, "mysql-port", 0, "MySQL port")
	cmd.Flags().StringVar(&cfg.MySQLUser, "mysql-user", "", "MySQL username")
	cmd.Flags().StringVar(&cfg.MySQLPass, "mysql-pass", "", "MySQL password")
	cmd.Flags().StringVar(&cfg.MySQLDatabase, "mysql-database", "", "MySQL database name")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", 1000, "Number of rows per batch")
	cmd.Flags().BoolVar(&cfg.Clean, "clean", false, "Delete target rows before copying")
	cmd.Flags().BoolVar(&cfg.SkipVerify, "skip-verify", false, "Skip post-copy verification")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Log every batch")

	return cmd
}

func run(cmd *cobra.Command, cfg *Config) error {
	base, err := conf.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	source, target := cfg.Settings(base)

	if _, err := os.Stat(source.Database.SQLite.Path); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("path", source.Database.SQLite.Path).
			Build()
	}

	level := logger.LogLevelInfo
	if cfg.Verbose {
		level = logger.LogLevelDebug
	}
	log := logger.NewSlogLogger(cmd.ErrOrStderr(), level, nil)

	src := datastore.New(source, datastore.WithLogger(log))
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	dst := datastore.New(target, datastore.WithLogger(log))
	if err := dst.Open(); err != nil {
		return err
	}
	defer dst.Close()

	stats, err := datastore.Copy(cmd.Context(), src, dst, datastore.CopyOptions{
		BatchSize: cfg.BatchSize,
		Clean:     cfg.Clean,
	}, log)
	if stats != nil {
		printStats(cmd.OutOrStdout(), stats)
	}
	if err != nil {
		return err
	}

	if !cfg.SkipVerify {
		if err := datastore.VerifyCopy(cmd.Context(), src, dst); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Verification passed")
	}
	return nil
}

// Settings derives the source and target settings, flags taking precedence
// over base.
func (c *Config) Settings(base *conf.Settings) (source, target *conf.Settings) {
	src := *base
	src.Database.Type = conf.DatabaseSQLite
	if c.SQLitePath != "" {
		src.Database.SQLite.Path = c.SQLitePath
	}

	dst := *base
	dst.Database.Type = conf.DatabaseMySQL
	mysql := &dst.Database.MySQL
	if c.MySQLHost != "" {
		mysql.Host = c.MySQLHost
	}
	if c.MySQLPort != 0 {
		mysql.Port = c.MySQLPort
	}
	if c.MySQLUser != "" {
		mysql.Username = c.MySQLUser
	}
	if c.MySQLPass != "" {
		mysql.Password = c.MySQLPass
	}
	if c.MySQLDatabase != "" {
		mysql.Database = c.MySQLDatabase
	}
	return &src, &dst
}

func printStats(w io.Writer, stats *datastore.CopyStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Table\tCopied\tSkipped\tErrors\tDuration\t")
	for _, t := range stats.Tables {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t\n", t.Name, t.Copied, t.Skipped, t.Errors, t.Duration.Round(time.Millisecond))
	}
	copied, skipped, failed := stats.Totals()
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t\t\n", copied, skipped, failed)
	_ = tw.Flush()
}
