package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// BeginRun records a new sync run in the running state.
func (s *Store) BeginRun(ctx context.Context, runID string, startedAt time.Time) (*SyncRun, error) {
	id, err := s.upsertReturningID(ctx,
		"INSERT INTO sync_runs (run_id, status, started_at) VALUES (?, ?, ?) RETURNING id",
		runID, string(RunRunning), formatTime(startedAt))
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &SyncRun{ID: id, RunID: runID, Status: RunRunning, StartedAt: startedAt.UTC()}, nil
}

// FinishRun stores the final counters and status of a run.
func (s *Store) FinishRun(ctx context.Context, run SyncRun) error {
	err := s.exec(ctx, `
		UPDATE sync_runs SET status = ?, finished_at = ?, videos_total = ?, videos_succeeded = ?,
			videos_failed = ?, error_message = ?
		WHERE run_id = ?`,
		string(run.Status), nullableTime(run.FinishedAt), run.VideosTotal, run.VideosSucceeded,
		run.VideosFailed, nullableString(run.ErrorMessage), run.RunID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.RunID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, status, started_at, finished_at, videos_total, videos_succeeded, videos_failed, error_message
		FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []SyncRun
	for rows.Next() {
		var (
			run         SyncRun
			status      string
			startedRaw  string
			finishedRaw sql.NullString
			errMsg      sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.RunID, &status, &startedRaw, &finishedRaw,
			&run.VideosTotal, &run.VideosSucceeded, &run.VideosFailed, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = RunStatus(status)
		run.StartedAt = mustTime(startedRaw)
		if finishedRaw.Valid {
			if t, err := parseTimeString(finishedRaw.String); err == nil {
				run.FinishedAt = &t
			}
		}
		run.ErrorMessage = errMsg.String
		out = append(out, run)
	}
	return out, rows.Err()
}
