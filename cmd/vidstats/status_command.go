package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vidstats/internal/config"
	"vidstats/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runs, err := st.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []store.SyncRun{}
					}
					return writeJSON(cmd, runs)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Store: %s\n", st.Path())
				if len(runs) == 0 {
					fmt.Fprintln(out, renderStatusLine("Last sync", statusInfo, "no runs recorded", colorize))
					return nil
				}

				last := runs[0]
				fmt.Fprintln(out, renderStatusLine("Last sync", runStatusKind(last.Status), runMessage(last), colorize))

				rows := make([][]string, 0, len(runs))
				loc := cfg.Location()
				for _, run := range runs {
					rows = append(rows, []string{
						run.RunID,
						string(run.Status),
						run.StartedAt.In(loc).Format("2006-01-02 15:04:05"),
						runDuration(run),
						strconv.Itoa(run.VideosTotal),
						strconv.Itoa(run.VideosSucceeded),
						strconv.Itoa(run.VideosFailed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Status", "Started", "Duration", "Videos", "OK", "Failed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func runMessage(run store.SyncRun) string {
	msg := fmt.Sprintf("%s, %d/%d videos", run.Status, run.VideosSucceeded, run.VideosTotal)
	if run.ErrorMessage != "" {
		msg += " (" + run.ErrorMessage + ")"
	}
	return msg
}

func runDuration(run store.SyncRun) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}
