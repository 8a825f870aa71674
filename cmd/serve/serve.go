// Package serve implements the command that runs the HTTP API.
package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vedanthangal/sanctuary/internal/api"
	"github.com/vedanthangal/sanctuary/internal/app"
	"github.com/vedanthangal/sanctuary/internal/buildinfo"
	"github.com/vedanthangal/sanctuary/internal/conf"
)

// Command creates the serve command.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics API",
		Long:  "Start the HTTP API serving dashboard analytics, sightings, species and hotspots.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				settings.WebServer.Listen = listen
			}
			return run(cmd.Context(), settings, build)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address, overrides webserver.listen")

	return cmd
}

func run(parent context.Context, settings *conf.Settings, build *buildinfo.Context) (err error) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, settings, build)
	defer func() {
		if closeErr := a.Close(); err == nil {
			err = closeErr
		}
	}()
	if err != nil {
		return err
	}

	server, err := api.New(settings, a.Store, a.Service,
		api.WithLogger(a.Log),
		api.WithMetrics(a.Metrics),
		api.WithBuildInfo(build))
	if err != nil {
		return err
	}

	return server.StartBlocking(ctx)
}
