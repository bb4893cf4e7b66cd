package reconcile

import (
	"testing"
	"time"

	"vidstats/internal/store"
	"vidstats/internal/upstream"
	"vidstats/internal/useragent"
)

func TestMergeAnswerSuppressesZeroOverPositive(t *testing.T) {
	existing := &store.QuestionAnswer{ID: 3, QuestionRef: 9, Label: "3", AnsweredCount: 5}

	row, ok := mergeAnswer(existing, 9, upstream.Answer{Label: "3", AnsweredCount: 0})
	if ok {
		t.Fatal("expected zero-count update to be dropped")
	}
	if row.AnsweredCount != 5 {
		t.Fatalf("expected stored count to win, got %d", row.AnsweredCount)
	}

	row, ok = mergeAnswer(nil, 9, upstream.Answer{Label: "3", AnsweredCount: 0})
	if !ok || row.AnsweredCount != 0 || row.Label != "3" {
		t.Fatalf("expected creation with zero count, got %#v ok=%v", row, ok)
	}

	zeroStored := &store.QuestionAnswer{QuestionRef: 9, Label: "3"}
	if _, ok := mergeAnswer(zeroStored, 9, upstream.Answer{Label: "3"}); !ok {
		t.Fatal("zero over zero should still be written")
	}

	row, ok = mergeAnswer(existing, 9, upstream.Answer{Label: "3", AnsweredCount: 2, IsCorrectAnswer: true})
	if !ok || row.AnsweredCount != 2 || !row.IsCorrectAnswer {
		t.Fatalf("expected lower positive count to overwrite, got %#v", row)
	}
}

func TestMergeInteractionPreservesDetailOnlyFields(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	first := mergeInteraction(nil, 1, interactionFromDetail(upstream.InteractionDetail{
		ID:              77,
		Title:           "Buy",
		Type:            "click",
		ActionType:      "link",
		DurationSeconds: 4.5,
		TotalClicks:     3,
		CreatedAt:       "2024-05-01T10:00:00Z",
	}), time.UTC)
	if !first.CreatedAt.Equal(created) || first.Type != "click" {
		t.Fatalf("unexpected first pass %#v", first)
	}

	second := mergeInteraction(&first, 1, interactionFromList(upstream.InteractionEntry{
		ID:                77,
		Title:             "Buy now",
		StartTime:         1,
		EndTime:           2,
		TotalTimesClicked: 9,
	}), time.UTC)
	if second.Type != "click" || second.ActionType != "link" || second.DurationSeconds != 4.5 {
		t.Fatalf("detail-only fields lost: %#v", second)
	}
	if !second.CreatedAt.Equal(created) {
		t.Fatalf("created_at lost: %v", second.CreatedAt)
	}
	if second.Title != "Buy now" || second.TotalClicks != 9 || second.EndTimeSeconds != 2 {
		t.Fatalf("list fields not applied: %#v", second)
	}
}

func TestMergeInteractionDefaultsOnFirstListCreate(t *testing.T) {
	row := mergeInteraction(nil, 1, interactionFromList(upstream.InteractionEntry{ID: 5, Title: "x"}), time.UTC)
	if row.Type != "" || row.ActionType != "" || row.DurationSeconds != 0 {
		t.Fatalf("expected empty defaults, got %#v", row)
	}
	if !row.CreatedAt.Equal(time.Unix(0, 0)) {
		t.Fatalf("expected epoch created_at, got %v", row.CreatedAt)
	}
}

func TestMergeQuestionSourceOwnership(t *testing.T) {
	fromList := mergeQuestion(nil, 1, questionFromList(upstream.Question{
		ID:                       8,
		QuestionText:             "Why?",
		QuestionType:             "open",
		AverageAnswerTimeSeconds: 6.5,
		TotalGivenAnswers:        10,
	}), time.UTC)
	if fromList.AverageAnswerTimeSeconds != 6.5 {
		t.Fatalf("expected answer time from list, got %v", fromList.AverageAnswerTimeSeconds)
	}

	fromAgg := mergeQuestion(&fromList, 1, questionFromDetail(upstream.QuestionDetail{
		ID:            8,
		Title:         "Why?",
		Type:          "open",
		ActiveAt:      12,
		AmountAnswers: 11,
		CreatedAt:     "2024-01-02 03:04:05",
	}), time.UTC)
	if fromAgg.AverageAnswerTimeSeconds != 6.5 {
		t.Fatalf("aggregated pass must keep answer time, got %v", fromAgg.AverageAnswerTimeSeconds)
	}
	if fromAgg.TotalAnswered != 11 || fromAgg.VideoTimeSeconds != 12 {
		t.Fatalf("aggregated fields not applied: %#v", fromAgg)
	}
	if fromAgg.CreatedAt.Year() != 2024 {
		t.Fatalf("expected created_at from aggregated, got %v", fromAgg.CreatedAt)
	}

	again := mergeQuestion(&fromAgg, 1, questionFromList(upstream.Question{ID: 8, QuestionText: "Why?", QuestionType: "open"}), time.UTC)
	if !again.CreatedAt.Equal(fromAgg.CreatedAt) {
		t.Fatal("list pass must preserve created_at")
	}
}

func TestSessionsFromBucketsKeepsPositions(t *testing.T) {
	buckets := upstream.AgentBuckets{
		{Label: "agent-a", Count: 4},
		{Label: "unknown", Count: 9},
		{Label: "agent-b", Count: 1},
	}
	classify := func(label string) useragent.Agent {
		return useragent.Agent{Browser: label, Device: useragent.DeviceUnknown}
	}

	sessions := sessionsFromBuckets(1, buckets, classify)
	if len(sessions) != 2 {
		t.Fatalf("expected unknown bucket skipped, got %d sessions", len(sessions))
	}
	if sessions[0].ObjectID != 1 || sessions[0].ViewerBrowser != "agent-a" || sessions[0].ViewerCount != 4 {
		t.Fatalf("unexpected first session %#v", sessions[0])
	}
	if sessions[1].ObjectID != 3 || sessions[1].ViewerBrowser != "agent-b" {
		t.Fatalf("expected second session at position 3, got %#v", sessions[1])
	}
}

func TestMonthlyFromBucketSkipsEmptyPeriod(t *testing.T) {
	if _, ok := monthlyFromBucket(1, upstream.MonthBucket{Total: 3}); ok {
		t.Fatal("expected empty period to be skipped")
	}
	row, ok := monthlyFromBucket(1, upstream.MonthBucket{Period: "2024-03", Total: 3, Unfinished: 1})
	if !ok || row.Month != "2024-03" || row.TotalViews != 3 || row.UnfinishedViews != 1 {
		t.Fatalf("unexpected row %#v", row)
	}
}

func TestTracksAnswers(t *testing.T) {
	for _, typ := range []string{"mc", "mr", "image"} {
		if !tracksAnswers(typ) {
			t.Fatalf("expected %s to track answers", typ)
		}
	}
	for _, typ := range []string{"open", "rating", ""} {
		if tracksAnswers(typ) {
			t.Fatalf("expected %s not to track answers", typ)
		}
	}
}
