package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vidstats/internal/config"
	"vidstats/internal/logging"
	"vidstats/internal/reconcile"
	"vidstats/internal/services"
	"vidstats/internal/store"
	"vidstats/internal/upstream"
)

// ErrAlreadyRunning is returned when another sync holds the lock file.
var ErrAlreadyRunning = errors.New("another sync run is in progress")

// Lister produces the full video listing.
type Lister interface {
	ListAllVideos(ctx context.Context) ([]upstream.Video, error)
}

// VideoReconciler processes one video.
type VideoReconciler interface {
	Reconcile(ctx context.Context, v upstream.Video) (reconcile.Report, error)
}

// RunStore records run lifecycle rows.
type RunStore interface {
	BeginRun(ctx context.Context, runID string, startedAt time.Time) (*store.SyncRun, error)
	FinishRun(ctx context.Context, run store.SyncRun) error
}

// Job drives one synchronization run.
type Job struct {
	lister     Lister
	reconciler VideoReconciler
	runs       RunStore
	lockPath   string
	workers    int
	logger     *slog.Logger
	now        func() time.Time
}

// Summary is the outcome of a run.
type Summary struct {
	RunID     string
	Status    store.RunStatus
	Total     int
	Succeeded int
	Failed    int
	Rows      int
	Duration  time.Duration
}

// New wires a job from its collaborators. Workers and the lock path come
// from cfg.
func New(cfg *config.Config, lister Lister, reconciler VideoReconciler, runs RunStore, logger *slog.Logger) (*Job, error) {
	if cfg == nil || lister == nil || reconciler == nil || runs == nil {
		return nil, errors.New("ingest job requires config, lister, reconciler, and run store")
	}
	workers := cfg.Sync.Workers
	if workers < 1 {
		workers = 1
	}
	return &Job{
		lister:     lister,
		reconciler: reconciler,
		runs:       runs,
		lockPath:   cfg.LockPath(),
		workers:    workers,
		logger:     logging.NewComponentLogger(logger, "sync"),
		now:        time.Now,
	}, nil
}

// Run lists every video and reconciles each one. Per-video failures,
// panics included, are logged and counted; they never stop the run. Only a
// failed listing, a held lock, or a store failure while recording the run
// returns an error.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	if err := os.MkdirAll(filepath.Dir(j.lockPath), 0o755); err != nil {
		return Summary{}, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(j.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return Summary{}, ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			j.logger.Warn("failed to release sync lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, j.logger)
	started := j.now()

	if _, err := j.runs.BeginRun(ctx, runID, started); err != nil {
		return Summary{RunID: runID}, services.Wrap(services.ErrStore, "sync", "begin run", "", err)
	}
	logger.Info("sync run started", "workers", j.workers)

	summary := Summary{RunID: runID}
	videos, listErr := j.lister.ListAllVideos(ctx)
	if listErr != nil {
		summary.Status = store.RunFailed
		summary.Duration = j.now().Sub(started)
		logging.WarnWithContext(logger, "video listing failed; run aborted", "sync_listing_failed",
			logging.Int("listed", len(videos)),
			logging.Error(listErr),
		)
		wrapped := services.Wrap(services.ErrUpstream, "sync", "list videos", "", listErr)
		if err := j.finish(ctx, summary, started, wrapped.Error()); err != nil {
			return summary, errors.Join(wrapped, err)
		}
		return summary, wrapped
	}

	videos = dedupe(videos)
	summary.Total = len(videos)
	logger.Info("video listing complete", "videos", summary.Total)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.workers)
	for i, v := range videos {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report, err := j.reconcileOne(gctx, v)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				logging.WarnWithContext(logging.WithContext(services.WithVideoID(gctx, v.ID), logger),
					"video reconcile failed", "video_reconcile_failed",
					logging.String("failure_kind", services.FailureKind(err)),
					logging.Error(err),
				)
				return nil
			}
			summary.Succeeded++
			summary.Rows += report.Rows
			logger.Info("video reconciled",
				logging.Args(
					logging.Int64(logging.FieldVideoID, v.ID),
					logging.String("progress", fmt.Sprintf("%d/%d", i+1, summary.Total)),
					logging.Int("rows", report.Rows),
					logging.Int("skipped_steps", len(report.Skipped)),
				)...,
			)
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = j.now().Sub(started)
	summary.Status = statusFor(summary)
	errMsg := ""
	if err := ctx.Err(); err != nil {
		summary.Status = store.RunFailed
		errMsg = err.Error()
	}
	if err := j.finish(ctx, summary, started, errMsg); err != nil {
		return summary, err
	}

	logger.Info("sync run finished",
		"status", string(summary.Status),
		"videos", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"rows", summary.Rows,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// reconcileOne converts a panic into an error so one malformed video cannot
// take down the run.
func (j *Job) reconcileOne(ctx context.Context, v upstream.Video) (report reconcile.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reconciling video %d: %v\n%s", v.ID, r, debug.Stack())
		}
	}()
	return j.reconciler.Reconcile(ctx, v)
}

func (j *Job) finish(ctx context.Context, summary Summary, started time.Time, errMsg string) error {
	finished := started.Add(summary.Duration)
	// Record the outcome even when the run context was cancelled.
	err := j.runs.FinishRun(context.WithoutCancel(ctx), store.SyncRun{
		RunID:           summary.RunID,
		Status:          summary.Status,
		StartedAt:       started,
		FinishedAt:      &finished,
		VideosTotal:     summary.Total,
		VideosSucceeded: summary.Succeeded,
		VideosFailed:    summary.Failed,
		ErrorMessage:    errMsg,
	})
	if err != nil {
		return services.Wrap(services.ErrStore, "sync", "finish run", "", err)
	}
	return nil
}

func statusFor(s Summary) store.RunStatus {
	switch {
	case s.Failed == 0:
		return store.RunCompleted
	case s.Succeeded == 0:
		return store.RunFailed
	default:
		return store.RunPartial
	}
}

// dedupe drops repeated video ids, keeping the first occurrence. Two workers
// must never reconcile the same natural keys concurrently. Entries without an
// id own no keys; they all pass through so each one is counted as failed.
func dedupe(videos []upstream.Video) []upstream.Video {
	seen := make(map[int64]struct{}, len(videos))
	out := videos[:0:0]
	for _, v := range videos {
		if v.ID == 0 {
			out = append(out, v)
			continue
		}
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}
