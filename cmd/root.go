// Package cmd defines the sanctuary command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vedanthangal/sanctuary/cmd/configcmd"
	"github.com/vedanthangal/sanctuary/cmd/report"
	"github.com/vedanthangal/sanctuary/cmd/seed"
	"github.com/vedanthangal/sanctuary/cmd/serve"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(build *buildinfo.Context) *cobra.Command {
	var configFile string
	var debug bool
	settings := &conf.Settings{}

	rootCmd := &cobra.Command{
		Use:           "sanctuary",
		Short:         "Vedanthangal bird sanctuary analytics",
		Version:       build.GetVersion(),
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/sanctuary, /etc/sanctuary)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	// Load settings before any subcommand runs; flags override the file
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		if debug || loaded.Debug {
			loaded.Debug = true
			loaded.Logging.DefaultLevel = "debug"
			if loaded.Logging.Console != nil {
				loaded.Logging.Console.Level = "debug"
			}
		}
		*settings = *loaded
		return nil
	}

	rootCmd.AddCommand(
		serve.Command(settings, build),
		seed.Command(settings, build),
		report.Command(settings, build),
		configcmd.Command(settings),
	)

	return rootCmd
}
