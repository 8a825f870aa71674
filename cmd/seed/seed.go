// Package seed implements the command that loads demo data into the store.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedanthangal/sanctuary/internal/app"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
)

// Command creates the seed command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo sightings into the database",
		Long:  "Seed the species catalog, three demo sightings and the sanctuary hotspot. Existing species and hotspots are reused.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := app.New(cmd.Context(), settings, build)
			defer func() {
				if closeErr := a.Close(); err == nil {
					err = closeErr
				}
			}()
			if err != nil {
				return err
			}

			result, err := a.Service.SeedDemo(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Species created:   %d\n", result.SpeciesCreated)
			fmt.Fprintf(out, "Species existing:  %d\n", result.SpeciesExisting)
			fmt.Fprintf(out, "Sightings created: %d\n", result.SightingsCreated)
			fmt.Fprintf(out, "Hotspots created:  %d\n", result.HotspotsCreated)
			return nil
		},
	}
}
