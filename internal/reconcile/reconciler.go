package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vidstats/internal/logging"
	"vidstats/internal/rating"
	"vidstats/internal/services"
	"vidstats/internal/store"
	"vidstats/internal/upstream"
	"vidstats/internal/useragent"
)

// ErrInvalidVideo rejects listing entries without an upstream id.
var ErrInvalidVideo = errors.New("video record has no id")

// Fetcher is the subset of the upstream client the reconciler consumes.
type Fetcher interface {
	VideoDetail(ctx context.Context, videoID int64) (upstream.VideoDetail, error)
	AggregatedStatistics(ctx context.Context, videoID int64) (upstream.AggregatedStatistics, error)
	MonthlyViews(ctx context.Context, videoID int64, start, end string) ([]upstream.MonthBucket, error)
	ViewsByUserAgent(ctx context.Context, videoID int64) (upstream.AgentBuckets, error)
	Interactions(ctx context.Context, videoID int64) ([]upstream.InteractionEntry, error)
	Questions(ctx context.Context, videoID int64) ([]upstream.Question, error)
}

// Store is the keyed upsert store the reconciler writes to.
type Store interface {
	UpsertVideo(ctx context.Context, v store.Video) (*store.Video, error)
	GetVideoStats(ctx context.Context, videoRef int64) (*store.VideoStats, error)
	UpsertVideoStats(ctx context.Context, st store.VideoStats) (*store.VideoStats, error)
	GetInteraction(ctx context.Context, videoRef, interactionID int64) (*store.InteractionStat, error)
	UpsertInteraction(ctx context.Context, it store.InteractionStat) (*store.InteractionStat, error)
	GetQuestion(ctx context.Context, videoRef, questionID int64) (*store.QuestionStat, error)
	UpsertQuestion(ctx context.Context, q store.QuestionStat) (*store.QuestionStat, error)
	GetAnswer(ctx context.Context, questionRef int64, label string) (*store.QuestionAnswer, error)
	UpsertAnswer(ctx context.Context, a store.QuestionAnswer) (*store.QuestionAnswer, error)
	UpsertMonthlyView(ctx context.Context, m store.MonthlyView) (*store.MonthlyView, error)
	UpsertViewSession(ctx context.Context, vs store.ViewSession) (*store.ViewSession, error)
	UpsertRating(ctx context.Context, r store.VideoRating) (*store.VideoRating, error)
}

// Classifier turns viewer-agent labels into platform attributes.
type Classifier interface {
	Classify(label string) useragent.Agent
}

// Reconciler merges one video's upstream resources into the store.
type Reconciler struct {
	fetch      Fetcher
	store      Store
	classifier Classifier
	logger     *slog.Logger
	now        func() time.Time
	loc        *time.Location
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the clock used for the monthly views window.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the zone used for naive upstream timestamps and "today".
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClassifier replaces the default user-agent classifier.
func WithClassifier(c Classifier) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.classifier = c
		}
	}
}

// New builds a reconciler.
func New(fetch Fetcher, st Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetch:  fetch,
		store:  st,
		logger: logging.NewNop(),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.classifier == nil {
		r.classifier = useragent.New()
	}
	r.logger = logging.NewComponentLogger(r.logger, "reconcile")
	return r
}

// Reconcile runs every step for v in order. An upstream failure skips the
// step and leaves its stored rows untouched; a store failure aborts the
// video and is returned tagged services.ErrStore.
func (r *Reconciler) Reconcile(ctx context.Context, v upstream.Video) (Report, error) {
	report := Report{VideoID: v.ID}
	if v.ID == 0 {
		return report, services.Wrap(services.ErrValidation, "reconcile", "video", "listing entry skipped", ErrInvalidVideo)
	}
	ctx = services.WithVideoID(ctx, v.ID)
	logger := logging.WithContext(ctx, r.logger)

	video, err := r.store.UpsertVideo(ctx, videoFromListing(v, r.loc))
	if err != nil {
		return report, storeErr("upsert video", err)
	}
	report.applied(StepVideo, 1)
	vc := &videoContext{Reconciler: r, video: video, raw: v, logger: logger, report: &report}

	steps := []struct {
		step Step
		run  func(context.Context) (int, error)
	}{
		{StepDetail, vc.applyDetail},
		{StepAggregated, vc.applyAggregated},
		{StepMonthlyViews, vc.applyMonthlyViews},
		{StepViewSessions, vc.applyViewSessions},
		{StepInteractions, vc.applyInteractions},
		{StepQuestions, vc.applyQuestions},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rows, err := s.run(ctx)
		switch {
		case err == nil:
			report.applied(s.step, rows)
		case isSkip(err):
			report.skipped(s.step)
			logger.Debug("step skipped", "step", string(s.step), "reason", err.Error())
		default:
			return report, err
		}
	}

	logger.Debug("video reconciled",
		"applied", len(report.Applied),
		"skipped", len(report.Skipped),
		"rows", report.Rows,
	)
	return report, nil
}

// videoContext carries per-video state between steps.
type videoContext struct {
	*Reconciler
	video     *store.Video
	raw       upstream.Video
	logger    *slog.Logger
	report    *Report
	questions []upstream.Question
}

// skipError marks a step that had nothing to apply.
type skipError struct{ err error }

func (e skipError) Error() string { return e.err.Error() }
func (e skipError) Unwrap() error { return e.err }

func skip(err error) error { return skipError{err: err} }

func isSkip(err error) bool {
	var s skipError
	return errors.As(err, &s)
}

func storeErr(operation string, err error) error {
	return services.Wrap(services.ErrStore, "reconcile", operation, "", err)
}

func (vc *videoContext) applyDetail(ctx context.Context) (int, error) {
	detail, err := vc.fetch.VideoDetail(ctx, vc.raw.ID)
	if err != nil {
		return 0, skip(err)
	}
	if _, err := vc.store.UpsertVideoStats(ctx, statsFromDetail(vc.video.ID, detail)); err != nil {
		return 0, storeErr("upsert video stats", err)
	}
	return 1, nil
}

func (vc *videoContext) applyAggregated(ctx context.Context) (int, error) {
	agg, err := vc.fetch.AggregatedStatistics(ctx, vc.raw.ID)
	if err != nil {
		return 0, skip(err)
	}
	stats := agg.Statistics

	existing, err := vc.store.GetVideoStats(ctx, vc.video.ID)
	if err != nil {
		return 0, storeErr("get video stats", err)
	}
	if _, err := vc.store.UpsertVideoStats(ctx, mergeAggregates(existing, vc.video.ID, stats)); err != nil {
		return 0, storeErr("upsert video stats", err)
	}
	rows := 1

	for _, d := range stats.Interactions.Details {
		if err := vc.upsertInteraction(ctx, interactionFromDetail(d)); err != nil {
			return rows, err
		}
		rows++
	}
	for _, d := range stats.Questions.Details {
		if _, err := vc.upsertQuestion(ctx, questionFromDetail(d)); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

func (vc *videoContext) applyMonthlyViews(ctx context.Context) (int, error) {
	startDate := upstream.DatePart(vc.raw.CreatedAt)
	if startDate == "" {
		return 0, skip(errors.New("video has no creation date"))
	}
	start := startDate + " 00:00:00"
	end := vc.now().In(vc.loc).Format("2006-01-02") + " 23:59:59"

	buckets, err := vc.fetch.MonthlyViews(ctx, vc.raw.ID, start, end)
	if err != nil {
		return 0, skip(err)
	}
	rows := 0
	for _, b := range buckets {
		row, ok := monthlyFromBucket(vc.video.ID, b)
		if !ok {
			continue
		}
		if _, err := vc.store.UpsertMonthlyView(ctx, row); err != nil {
			return rows, storeErr("upsert monthly views", err)
		}
		rows++
	}
	return rows, nil
}

func (vc *videoContext) applyViewSessions(ctx context.Context) (int, error) {
	buckets, err := vc.fetch.ViewsByUserAgent(ctx, vc.raw.ID)
	if err != nil {
		return 0, skip(err)
	}
	rows := 0
	for _, session := range sessionsFromBuckets(vc.video.ID, buckets, vc.classifier.Classify) {
		if _, err := vc.store.UpsertViewSession(ctx, session); err != nil {
			return rows, storeErr("upsert view session", err)
		}
		rows++
	}
	return rows, nil
}

func (vc *videoContext) applyInteractions(ctx context.Context) (int, error) {
	entries, err := vc.fetch.Interactions(ctx, vc.raw.ID)
	if err != nil {
		return 0, skip(err)
	}
	rows := 0
	for _, e := range entries {
		if err := vc.upsertInteraction(ctx, interactionFromList(e)); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

// applyQuestions also writes the answers and the rating derived from the
// same question list.
func (vc *videoContext) applyQuestions(ctx context.Context) (int, error) {
	questions, err := vc.fetch.Questions(ctx, vc.raw.ID)
	if err != nil {
		vc.report.skipped(StepRating)
		return 0, skip(err)
	}
	rows := 0
	for _, q := range questions {
		stored, err := vc.upsertQuestion(ctx, questionFromList(q))
		if err != nil {
			return rows, err
		}
		rows++
		if !tracksAnswers(q.QuestionType) {
			continue
		}
		for _, a := range q.Answers {
			written, err := vc.upsertAnswer(ctx, stored.ID, a)
			if err != nil {
				return rows, err
			}
			if written {
				rows++
			}
		}
	}

	summary, ok := rating.Extract(questions)
	if !ok {
		vc.report.skipped(StepRating)
		return rows, nil
	}
	if _, err := vc.store.UpsertRating(ctx, ratingRow(vc.video.ID, summary)); err != nil {
		return rows, storeErr("upsert rating", err)
	}
	vc.report.applied(StepRating, 1)
	return rows, nil
}

func (vc *videoContext) upsertInteraction(ctx context.Context, u interactionUpdate) error {
	existing, err := vc.store.GetInteraction(ctx, vc.video.ID, u.interactionID)
	if err != nil {
		return storeErr("get interaction", err)
	}
	vc.logger.Debug("merging interaction",
		"interaction_id", u.interactionID,
		"source", u.src.String(),
		"existing", existing != nil,
	)
	if _, err := vc.store.UpsertInteraction(ctx, mergeInteraction(existing, vc.video.ID, u, vc.loc)); err != nil {
		return storeErr("upsert interaction", err)
	}
	return nil
}

func (vc *videoContext) upsertQuestion(ctx context.Context, u questionUpdate) (*store.QuestionStat, error) {
	existing, err := vc.store.GetQuestion(ctx, vc.video.ID, u.questionID)
	if err != nil {
		return nil, storeErr("get question", err)
	}
	vc.logger.Debug("merging question",
		"question_id", u.questionID,
		"source", u.src.String(),
		"existing", existing != nil,
	)
	stored, err := vc.store.UpsertQuestion(ctx, mergeQuestion(existing, vc.video.ID, u, vc.loc))
	if err != nil {
		return nil, storeErr("upsert question", err)
	}
	return stored, nil
}

func (vc *videoContext) upsertAnswer(ctx context.Context, questionRef int64, a upstream.Answer) (bool, error) {
	existing, err := vc.store.GetAnswer(ctx, questionRef, a.Label.String())
	if err != nil {
		return false, storeErr("get answer", err)
	}
	row, ok := mergeAnswer(existing, questionRef, a)
	if !ok {
		vc.report.SuppressedAnswers++
		vc.logger.Debug("zero answer count ignored",
			"question_ref", questionRef,
			"label", row.Label,
			"stored_count", row.AnsweredCount,
		)
		return false, nil
	}
	if _, err := vc.store.UpsertAnswer(ctx, row); err != nil {
		return false, storeErr(fmt.Sprintf("upsert answer %q", row.Label), err)
	}
	return true, nil
}
