package ingest_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gofrs/flock"

	"vidstats/internal/ingest"
	"vidstats/internal/reconcile"
	"vidstats/internal/store"
	"vidstats/internal/testsupport"
	"vidstats/internal/upstream"
)

type staticLister struct {
	videos []upstream.Video
	err    error
}

func (l staticLister) ListAllVideos(context.Context) ([]upstream.Video, error) {
	return l.videos, l.err
}

type scriptedReconciler struct {
	calls atomic.Int32
}

func (r *scriptedReconciler) Reconcile(_ context.Context, v upstream.Video) (reconcile.Report, error) {
	r.calls.Add(1)
	switch v.ID {
	case 0:
		return reconcile.Report{}, reconcile.ErrInvalidVideo
	case 2:
		return reconcile.Report{VideoID: v.ID}, errors.New("store exploded")
	case 3:
		panic("malformed payload")
	}
	return reconcile.Report{VideoID: v.ID, Rows: 4}, nil
}

func videos(ids ...int64) []upstream.Video {
	out := make([]upstream.Video, 0, len(ids))
	for _, id := range ids {
		out = append(out, upstream.Video{ID: id})
	}
	return out
}

func TestRunContainsPerVideoFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(3))
	st := testsupport.MustOpenStore(t, cfg)
	rec := &scriptedReconciler{}

	job, err := ingest.New(cfg, staticLister{videos: videos(1, 2, 3, 4, 1)}, rec, st, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 4 || summary.Succeeded != 2 || summary.Failed != 2 {
		t.Fatalf("unexpected summary %#v", summary)
	}
	if summary.Status != store.RunPartial {
		t.Fatalf("expected partial status, got %s", summary.Status)
	}
	if summary.Rows != 8 {
		t.Fatalf("expected rows from successful videos, got %d", summary.Rows)
	}
	if rec.calls.Load() != 4 {
		t.Fatalf("expected duplicate id to be reconciled once, got %d calls", rec.calls.Load())
	}

	runs, err := st.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID || runs[0].Status != store.RunPartial {
		t.Fatalf("unexpected recorded runs %#v", runs)
	}
	if runs[0].VideosFailed != 2 || runs[0].FinishedAt == nil {
		t.Fatalf("run counters not recorded: %#v", runs[0])
	}
}

func TestRunCountsEveryVideoWithoutID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	rec := &scriptedReconciler{}

	job, err := ingest.New(cfg, staticLister{videos: videos(0, 1, 0, 0)}, rec, st, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 4 || summary.Succeeded != 1 || summary.Failed != 3 {
		t.Fatalf("expected every id-less entry counted as failed, got %#v", summary)
	}
	if rec.calls.Load() != 4 {
		t.Fatalf("expected 4 reconcile calls, got %d", rec.calls.Load())
	}
	if summary.Status != store.RunPartial {
		t.Fatalf("expected partial status, got %s", summary.Status)
	}
}

func TestRunCompletesWhenEveryVideoSucceeds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	job, err := ingest.New(cfg, staticLister{videos: videos(1, 4)}, &scriptedReconciler{}, st, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Status != store.RunCompleted || summary.Succeeded != 2 {
		t.Fatalf("unexpected summary %#v", summary)
	}
}

func TestRunRecordsListingFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	rec := &scriptedReconciler{}

	lister := staticLister{videos: videos(1), err: upstream.ErrStatus}
	job, err := ingest.New(cfg, lister, rec, st, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	summary, err := job.Run(context.Background())
	if !errors.Is(err, upstream.ErrStatus) {
		t.Fatalf("expected listing error, got %v", err)
	}
	if summary.Status != store.RunFailed || rec.calls.Load() != 0 {
		t.Fatalf("expected failed run without reconciling, got %#v calls=%d", summary, rec.calls.Load())
	}
	runs, err := st.RecentRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != store.RunFailed || runs[0].ErrorMessage == "" {
		t.Fatalf("expected failed run with message, got %#v", runs)
	}
}

func TestRunRefusesWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("failed to take lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	job, err := ingest.New(cfg, staticLister{videos: videos(1)}, &scriptedReconciler{}, st, nil)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	if _, err := job.Run(context.Background()); !errors.Is(err, ingest.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := ingest.New(cfg, nil, &scriptedReconciler{}, nil, nil); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}
