package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"vidstats/internal/store"
	"vidstats/internal/testsupport"
)

func TestUpsertVideoIsKeyedByUpstreamID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	first, err := st.UpsertVideo(ctx, store.Video{VideoID: 7, Title: "Intro", CreatedDate: created, FolderName: "Training", FolderNumber: 3})
	if err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	second, err := st.UpsertVideo(ctx, store.Video{VideoID: 7, Title: "Intro v2", CreatedDate: created})
	if err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same surrogate id, got %d and %d", first.ID, second.ID)
	}

	videos, total, err := st.ListVideos(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if total != 1 || len(videos) != 1 {
		t.Fatalf("expected one video, got total=%d rows=%d", total, len(videos))
	}
	if videos[0].Title != "Intro v2" || videos[0].FolderName != "" {
		t.Fatalf("expected full overwrite, got %#v", videos[0])
	}
	if !videos[0].CreatedDate.Equal(created) {
		t.Fatalf("unexpected created date %s", videos[0].CreatedDate)
	}

	missing, err := st.GetVideo(ctx, 99)
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown video, got %#v", missing)
	}
}

func TestUpsertVideoOnlyTouchesUpdatedAtOnChange(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return clock })

	video := store.Video{VideoID: 11, Title: "Intro", Status: "active", CreatedDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	first, err := st.UpsertVideo(ctx, video)
	if err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if !first.UpdatedAt.Equal(clock) {
		t.Fatalf("expected updated_at %s on insert, got %s", clock, first.UpdatedAt)
	}

	clock = clock.Add(24 * time.Hour)
	again, err := st.UpsertVideo(ctx, video)
	if err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	stored, err := st.GetVideo(ctx, 11)
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if !again.UpdatedAt.Equal(first.UpdatedAt) || !stored.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("identical upsert moved updated_at: returned %s stored %s", again.UpdatedAt, stored.UpdatedAt)
	}

	video.Title = "Intro (new cut)"
	changed, err := st.UpsertVideo(ctx, video)
	if err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if !changed.UpdatedAt.Equal(clock) {
		t.Fatalf("expected updated_at %s after title change, got %s", clock, changed.UpdatedAt)
	}
}

func TestUpsertVideoRequiresID(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := st.UpsertVideo(context.Background(), store.Video{Title: "no id"}); err == nil {
		t.Fatal("expected error for missing upstream id")
	}
}

func TestDependentRowsDoNotDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	v := testsupport.MustVideo(t, st, 1, "One", time.Unix(0, 0))

	for i := range 3 {
		if _, err := st.UpsertInteraction(ctx, store.InteractionStat{VideoRef: v.ID, InteractionID: 10, TotalClicks: int64(i)}); err != nil {
			t.Fatalf("UpsertInteraction: %v", err)
		}
		q, err := st.UpsertQuestion(ctx, store.QuestionStat{VideoRef: v.ID, QuestionID: 20, TotalAnswered: int64(i)})
		if err != nil {
			t.Fatalf("UpsertQuestion: %v", err)
		}
		if _, err := st.UpsertAnswer(ctx, store.QuestionAnswer{QuestionRef: q.ID, Label: "A", AnsweredCount: int64(i)}); err != nil {
			t.Fatalf("UpsertAnswer: %v", err)
		}
		if _, err := st.UpsertMonthlyView(ctx, store.MonthlyView{VideoRef: v.ID, Month: "2024-01", TotalViews: int64(i)}); err != nil {
			t.Fatalf("UpsertMonthlyView: %v", err)
		}
		if _, err := st.UpsertViewSession(ctx, store.ViewSession{VideoRef: v.ID, ObjectID: 0, ViewerCount: int64(i)}); err != nil {
			t.Fatalf("UpsertViewSession: %v", err)
		}
		if _, err := st.UpsertRating(ctx, store.VideoRating{VideoRef: v.ID, RatingID: 30, FiveStar: int64(i)}); err != nil {
			t.Fatalf("UpsertRating: %v", err)
		}
		if _, err := st.UpsertVideoStats(ctx, store.VideoStats{VideoRef: v.ID, TotalViews: int64(i)}); err != nil {
			t.Fatalf("UpsertVideoStats: %v", err)
		}
	}

	opts := store.ListOptions{VideoID: 1}
	if _, n, _ := st.ListInteractions(ctx, opts); n != 1 {
		t.Fatalf("expected 1 interaction, got %d", n)
	}
	if _, n, _ := st.ListQuestions(ctx, opts); n != 1 {
		t.Fatalf("expected 1 question, got %d", n)
	}
	answers, n, err := st.ListAnswers(ctx, store.ListOptions{QuestionID: 20})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 answer, got %d (%v)", n, err)
	}
	if answers[0].AnsweredCount != 2 || answers[0].QuestionID != 20 {
		t.Fatalf("unexpected answer %#v", answers[0])
	}
	if _, n, _ := st.ListMonthlyViews(ctx, opts); n != 1 {
		t.Fatalf("expected 1 monthly row, got %d", n)
	}
	sessions, n, _ := st.ListViewSessions(ctx, opts)
	if n != 1 || sessions[0].ViewerDevice != "N/A" {
		t.Fatalf("expected 1 session with default device, got %d %#v", n, sessions)
	}
	if _, n, _ := st.ListRatings(ctx, opts); n != 1 {
		t.Fatalf("expected 1 rating, got %d", n)
	}
	stats, err := st.GetVideoStats(ctx, v.ID)
	if err != nil || stats == nil || stats.TotalViews != 2 || stats.VideoID != 1 {
		t.Fatalf("unexpected stats %#v (%v)", stats, err)
	}
}

func TestInteractionsOrderedByClicksAndPaged(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	v := testsupport.MustVideo(t, st, 1, "One", time.Unix(0, 0))
	for i, clicks := range []int64{5, 50, 10} {
		if _, err := st.UpsertInteraction(ctx, store.InteractionStat{VideoRef: v.ID, InteractionID: int64(i + 1), TotalClicks: clicks}); err != nil {
			t.Fatalf("UpsertInteraction: %v", err)
		}
	}

	page, total, err := st.ListInteractions(ctx, store.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("expected total 3 and 2 rows, got %d/%d", total, len(page))
	}
	if page[0].TotalClicks != 10 || page[1].TotalClicks != 5 {
		t.Fatalf("unexpected order: %d, %d", page[0].TotalClicks, page[1].TotalClicks)
	}
}

func TestMonthlyTotals(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	a := testsupport.MustVideo(t, st, 1, "A", time.Unix(0, 0))
	b := testsupport.MustVideo(t, st, 2, "B", time.Unix(0, 0))
	rows := []store.MonthlyView{
		{VideoRef: a.ID, Month: "2024-01", TotalViews: 3},
		{VideoRef: a.ID, Month: "2024-02", TotalViews: 4},
		{VideoRef: b.ID, Month: "2024-02", TotalViews: 9},
		{VideoRef: b.ID, Month: "2024-03", TotalViews: 1},
	}
	for _, m := range rows {
		if _, err := st.UpsertMonthlyView(ctx, m); err != nil {
			t.Fatalf("UpsertMonthlyView: %v", err)
		}
	}

	totals, err := st.MonthlyTotals(ctx, []string{"2024-01", "2024-02"})
	if err != nil {
		t.Fatalf("MonthlyTotals: %v", err)
	}
	if totals[1]["2024-01"] != 3 || totals[1]["2024-02"] != 4 || totals[2]["2024-02"] != 9 {
		t.Fatalf("unexpected totals %#v", totals)
	}
	if _, ok := totals[2]["2024-03"]; ok {
		t.Fatal("expected months outside the range to be excluded")
	}
}

func TestSyncRunLifecycle(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	run, err := st.BeginRun(ctx, "run-1", started)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	finished := started.Add(time.Minute)
	run.Status = store.RunPartial
	run.FinishedAt = &finished
	run.VideosTotal = 3
	run.VideosSucceeded = 2
	run.VideosFailed = 1
	if err := st.FinishRun(ctx, *run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := st.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	got := runs[0]
	if got.Status != store.RunPartial || got.VideosFailed != 1 || got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("unexpected run %#v", got)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.MustVideo(t, st, 5, "Five", time.Unix(0, 0))
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	v, err := reopened.GetVideo(context.Background(), 5)
	if err != nil || v == nil {
		t.Fatalf("expected video after reopen, got %v (%v)", v, err)
	}
	if _, err := os.Stat(reopened.Path()); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}
