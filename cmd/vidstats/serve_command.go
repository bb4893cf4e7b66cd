package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vidstats/internal/config"
	"vidstats/internal/export"
	"vidstats/internal/httpapi"
	"vidstats/internal/logging"
	"vidstats/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored snapshot over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if b := strings.TrimSpace(bind); b != "" {
					cfg.API.Bind = b
				}
				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}

				// The JSON passthrough export is the only route that needs
				// upstream; without a key it answers 500 and the rest still serve.
				var exporter export.VideoExporter
				if client, err := newUpstreamClient(cfg, logger); err == nil {
					exporter = client
				} else {
					logging.WarnWithContext(logger, "json export disabled", "api_key_missing",
						logging.Error(err))
				}

				server, err := httpapi.New(cfg, st, exporter, logger)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return server.Run(runCtx)
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides api.bind)")
	return cmd
}
