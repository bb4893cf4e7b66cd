package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vidstats/internal/config"
	"vidstats/internal/ingest"
	"vidstats/internal/reconcile"
	"vidstats/internal/store"
	"vidstats/internal/useragent"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var maxPages int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror every upstream video's analytics into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("--workers must be at least 1")
				}
				cfg.Sync.Workers = workers
			}
			if cmd.Flags().Changed("max-pages") {
				if maxPages < 1 {
					return fmt.Errorf("--max-pages must be at least 1")
				}
				cfg.Sync.MaxPages = maxPages
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runSync(runCtx, cfg)
			if summary.RunID != "" {
				printSyncSummary(cmd, summary)
			}
			if err != nil {
				if errors.Is(err, ingest.ErrAlreadyRunning) {
					return fmt.Errorf("%w; another vidstats sync holds %s", err, cfg.LockPath())
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Videos reconciled concurrently (overrides sync.workers)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Listing page ceiling (overrides sync.max_pages)")
	return cmd
}

func runSync(ctx context.Context, cfg *config.Config) (ingest.Summary, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return ingest.Summary{}, err
	}
	client, err := newUpstreamClient(cfg, logger)
	if err != nil {
		return ingest.Summary{}, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return ingest.Summary{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	reconciler := reconcile.New(client, st,
		reconcile.WithLogger(logger),
		reconcile.WithLocation(cfg.Location()),
		reconcile.WithClassifier(useragent.New()),
	)
	job, err := ingest.New(cfg, client, reconciler, st, logger)
	if err != nil {
		return ingest.Summary{}, err
	}
	return job.Run(ctx)
}

func printSyncSummary(cmd *cobra.Command, summary ingest.Summary) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	message := fmt.Sprintf("%d/%d videos, %d rows in %s",
		summary.Succeeded, summary.Total, summary.Rows, summary.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, renderStatusLine("Sync", runStatusKind(summary.Status), message, colorize))
	if summary.Failed > 0 {
		fmt.Fprintln(out, renderStatusLine("Failed", statusWarn, fmt.Sprintf("%d videos; see the log for details", summary.Failed), colorize))
	}
	fmt.Fprintf(out, "  %-*s %s\n", statusLabelWidth, "Run:", summary.RunID)
}
