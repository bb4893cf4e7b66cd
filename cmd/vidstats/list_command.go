package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidstats/internal/config"
	"vidstats/internal/store"
)

// listing renders one stored entity kind.
type listing struct {
	headers []string
	aligns  []columnAlignment
	fetch   func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error)
}

func tableOf[T any](ctx context.Context, list func(context.Context, store.ListOptions) ([]T, int, error), opts store.ListOptions, row func(T) []string) (any, [][]string, error) {
	items, _, err := list(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if items == nil {
		items = []T{}
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, row(item))
	}
	return items, rows, nil
}

var listings = map[string]listing{
	"videos": {
		headers: []string{"Video", "Title", "Status", "Created", "Folder"},
		aligns:  []columnAlignment{alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListVideos, opts, func(v store.Video) []string {
				return []string{itoa(v.VideoID), v.Title, v.Status, v.CreatedDate.Format("2006-01-02"), v.FolderName}
			})
		},
	},
	"stats": {
		headers: []string{"Video", "Views", "Started", "Finished", "Clicks", "Questions", "Duration (s)"},
		aligns:  []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListVideoStats, opts, func(s store.VideoStats) []string {
				return []string{itoa(s.VideoID), itoa(s.TotalViews), itoa(s.StartedViews), itoa(s.FinishedViews),
					itoa(s.InteractionClicks), itoa(s.NumQuestions), ftoa(s.VideoDurationSeconds)}
			})
		},
	},
	"interactions": {
		headers: []string{"Video", "Interaction", "Title", "Type", "Action", "Start", "End", "Clicks"},
		aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListInteractions, opts, func(it store.InteractionStat) []string {
				return []string{itoa(it.VideoID), itoa(it.InteractionID), it.Title, it.Type, it.ActionType,
					ftoa(it.StartTimeSeconds), ftoa(it.EndTimeSeconds), itoa(it.TotalClicks)}
			})
		},
	},
	"questions": {
		headers: []string{"Video", "Question", "Title", "Type", "At (s)", "Answered", "Correct", "Avg time (s)"},
		aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListQuestions, opts, func(q store.QuestionStat) []string {
				return []string{itoa(q.VideoID), itoa(q.QuestionID), q.Title, q.Type, ftoa(q.VideoTimeSeconds),
					itoa(q.TotalAnswered), itoa(q.TotalCorrectlyAnswered), ftoa(q.AverageAnswerTimeSeconds)}
			})
		},
	},
	"answers": {
		headers: []string{"Question", "Label", "Answered", "Correct"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListAnswers, opts, func(a store.QuestionAnswer) []string {
				return []string{itoa(a.QuestionID), a.Label, itoa(a.AnsweredCount), yesNo(a.IsCorrectAnswer)}
			})
		},
	},
	"monthly": {
		headers: []string{"Video", "Month", "Total", "Started", "Finished", "Passed", "Failed", "Unfinished"},
		aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListMonthlyViews, opts, func(m store.MonthlyView) []string {
				return []string{itoa(m.VideoID), m.Month, itoa(m.TotalViews), itoa(m.StartedViews), itoa(m.FinishedViews),
					itoa(m.PassedViews), itoa(m.FailedViews), itoa(m.UnfinishedViews)}
			})
		},
	},
	"sessions": {
		headers: []string{"Video", "#", "OS", "Browser", "Device", "Mobile", "Bot", "Viewers"},
		aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListViewSessions, opts, func(s store.ViewSession) []string {
				return []string{itoa(s.VideoID), itoa(s.ObjectID), joinNonEmpty(s.ViewerOS, s.OSVersion),
					joinNonEmpty(s.ViewerBrowser, s.BrowserVersion), s.ViewerDevice, yesNo(s.ViewerMobile),
					yesNo(s.IsBot), itoa(s.ViewerCount)}
			})
		},
	},
	"ratings": {
		headers: []string{"Video", "Rating", "Average", "1", "2", "3", "4", "5"},
		aligns:  []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		fetch: func(ctx context.Context, st *store.Store, opts store.ListOptions) (any, [][]string, error) {
			return tableOf(ctx, st.ListRatings, opts, func(r store.VideoRating) []string {
				return []string{itoa(r.VideoID), itoa(r.RatingID), ftoa(r.AverageRating),
					itoa(r.OneStar), itoa(r.TwoStar), itoa(r.ThreeStar), itoa(r.FourStar), itoa(r.FiveStar)}
			})
		},
	},
}

func listingKinds() []string {
	kinds := make([]string, 0, len(listings))
	for kind := range listings {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var videoID int64
	var questionID int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:       "list <" + strings.Join(listingKinds(), "|") + ">",
		Short:     "Print stored rows",
		Args:      cobra.ExactArgs(1),
		ValidArgs: listingKinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := strings.ToLower(strings.TrimSpace(args[0]))
			l, ok := listings[kind]
			if !ok {
				return fmt.Errorf("unknown list %q (expected one of %s)", args[0], strings.Join(listingKinds(), ", "))
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				opts := store.ListOptions{VideoID: videoID, QuestionID: questionID}
				items, rows, err := l.fetch(cmd.Context(), st, opts)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintf(out, "No %s stored\n", kind)
					return nil
				}
				fmt.Fprintln(out, renderTable(l.headers, rows, l.aligns))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&videoID, "video", 0, "Only rows for this upstream video id")
	cmd.Flags().Int64Var(&questionID, "question", 0, "Only answers for this upstream question id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
