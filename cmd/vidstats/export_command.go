package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidstats/internal/config"
	"vidstats/internal/export"
	"vidstats/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write monthly view CSVs or upstream JSON exports",
	}
	exportCmd.AddCommand(newExportMonthlyCommand(ctx))
	exportCmd.AddCommand(newExportJSONCommand(ctx))
	return exportCmd
}

func newExportMonthlyCommand(ctx *commandContext) *cobra.Command {
	var (
		month   string
		from    string
		to      string
		videoID int64
		all     bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Export monthly view totals as CSV",
		Example: "  vidstats export monthly --month 2024-05\n" +
			"  vidstats export monthly --from 2024-01 --to 2024-06 --video 42 -o views.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := monthlyRequest(month, from, to, videoID, all)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				target := output
				if target == "" {
					target = req.Filename()
				}
				exporter := export.New(st, cfg.Location())
				return writeOutput(cmd, target, func(w io.Writer) error {
					return exporter.WriteMonthlyCSV(cmd.Context(), w, req)
				})
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Single month to export (YYYY-MM)")
	cmd.Flags().StringVar(&from, "from", "", "First month of a range (YYYY-MM)")
	cmd.Flags().StringVar(&to, "to", "", "Last month of a range (YYYY-MM)")
	cmd.Flags().Int64Var(&videoID, "video", 0, "Only this upstream video id")
	cmd.Flags().BoolVar(&all, "all", false, "Include videos created after the month ended")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file ('-' for stdout; default derived from the selection)")
	cmd.MarkFlagsMutuallyExclusive("month", "from")
	cmd.MarkFlagsMutuallyExclusive("month", "to")
	cmd.MarkFlagsRequiredTogether("from", "to")
	return cmd
}

func monthlyRequest(month, from, to string, videoID int64, all bool) (export.MonthlyRequest, error) {
	month = strings.TrimSpace(month)
	if month != "" {
		m, err := export.ParseMonth(month)
		if err != nil {
			return export.MonthlyRequest{}, err
		}
		return export.MonthlyRequest{Start: m, End: m, VideoID: videoID, All: all}, nil
	}
	if strings.TrimSpace(from) == "" {
		return export.MonthlyRequest{}, errors.New("set --month or both --from and --to")
	}
	start, err := export.ParseMonth(strings.TrimSpace(from))
	if err != nil {
		return export.MonthlyRequest{}, err
	}
	end, err := export.ParseMonth(strings.TrimSpace(to))
	if err != nil {
		return export.MonthlyRequest{}, err
	}
	if end.Before(start) {
		return export.MonthlyRequest{}, fmt.Errorf("--to %s is before --from %s", end, start)
	}
	return export.MonthlyRequest{Start: start, End: end, VideoID: videoID, All: all}, nil
}

func newExportJSONCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "json <video_id>",
		Short: "Save the upstream export document for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || videoID <= 0 {
				return fmt.Errorf("invalid video id %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			client, err := newUpstreamClient(cfg, logger)
			if err != nil {
				return err
			}
			body, err := export.VideoJSON(cmd.Context(), client, videoID)
			if err != nil {
				return err
			}
			target := output
			if target == "" {
				target = export.JSONFilename(videoID)
			}
			return writeOutput(cmd, target, func(w io.Writer) error {
				_, err := w.Write(body)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file ('-' for stdout; default video_data_<id>.json)")
	return cmd
}

// writeOutput streams into target, or stdout when target is "-". A failed
// write removes the partial file.
func writeOutput(cmd *cobra.Command, target string, write func(io.Writer) error) error {
	if target == "-" {
		return write(cmd.OutOrStdout())
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", target)
	return nil
}
