package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type rowScanner interface{ Scan(dest ...any) error }

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// mustTime parses stored timestamps, falling back to the Unix epoch which is
// the snapshot's default for missing upstream times.
func mustTime(value string) time.Time {
	t, err := parseTimeString(value)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

// filterClause builds the WHERE clause shared by the list queries.
// videoColumn and questionColumn name the joined upstream id columns.
func filterClause(opts ListOptions, videoColumn, questionColumn string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if opts.VideoID != 0 && videoColumn != "" {
		conds = append(conds, videoColumn+" = ?")
		args = append(args, opts.VideoID)
	}
	if opts.QuestionID != 0 && questionColumn != "" {
		conds = append(conds, questionColumn+" = ?")
		args = append(args, opts.QuestionID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func pageClause(opts ListOptions) string {
	if opts.Limit <= 0 {
		return ""
	}
	if opts.Offset > 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	}
	return fmt.Sprintf(" LIMIT %d", opts.Limit)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
