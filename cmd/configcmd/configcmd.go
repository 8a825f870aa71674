// Package configcmd implements the command that prints the effective settings.
package configcmd

import (
	"github.com/spf13/cobra"

	"github.com/vedanthangal/sanctuary/internal/conf"
)

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  "Print the settings after defaults, config file, .env and environment variables are applied. Secrets are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.WriteYAML(cmd.OutOrStdout(), settings)
		},
	}
}
