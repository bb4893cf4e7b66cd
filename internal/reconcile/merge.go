package reconcile

import (
	"slices"
	"strings"
	"time"

	"vidstats/internal/rating"
	"vidstats/internal/store"
	"vidstats/internal/upstream"
	"vidstats/internal/useragent"
)

// source identifies which endpoint produced an update. Each source owns a
// subset of an entity's fields; the rest are carried from the stored row.
type source int

const (
	sourceAggregated source = iota
	sourceList
)

func (s source) String() string {
	if s == sourceList {
		return "list"
	}
	return "aggregated"
}

// answerTypes are the question types whose answers are tallied.
var answerTypes = []string{"mc", "mr", "image"}

func tracksAnswers(questionType string) bool {
	return slices.Contains(answerTypes, questionType)
}

func videoFromListing(v upstream.Video, loc *time.Location) store.Video {
	out := store.Video{
		VideoID: v.ID,
		UUID:    v.UUID,
		Title:   v.DisplayName,
		Status:  v.Status.String(),
	}
	if created, ok := upstream.ParseTime(v.CreatedAt, loc); ok {
		out.CreatedDate = created
	}
	if c := v.VideoContainer; c != nil {
		out.FolderName = c.Name
		out.FolderNumber = c.ID
	}
	return out
}

// statsFromDetail zeroes every counter; the aggregated step refills them.
func statsFromDetail(videoRef int64, detail upstream.VideoDetail) store.VideoStats {
	return store.VideoStats{VideoRef: videoRef, VideoDurationSeconds: detail.DurationSeconds()}
}

func mergeAggregates(existing *store.VideoStats, videoRef int64, agg upstream.Aggregates) store.VideoStats {
	out := store.VideoStats{VideoRef: videoRef}
	if existing != nil {
		out = *existing
	}
	out.TotalViews = int64(agg.Views)
	out.StartedViews = int64(agg.StartedViews)
	out.FinishedViews = int64(agg.FinishedViews)
	out.InteractionClicks = int64(agg.Interactions.TotalClicks)
	out.NumQuestions = int64(agg.Questions.Count)
	return out
}

// interactionUpdate is the union of fields either endpoint can report.
type interactionUpdate struct {
	src           source
	interactionID int64
	title         string
	typ           string
	actionType    string
	start, end    float64
	duration      float64
	link          string
	clicks        int64
	createdAt     string
}

func interactionFromDetail(d upstream.InteractionDetail) interactionUpdate {
	return interactionUpdate{
		src:           sourceAggregated,
		interactionID: d.ID,
		title:         d.Title,
		typ:           d.Type,
		actionType:    d.ActionType,
		start:         float64(d.StartTimeSeconds),
		end:           float64(d.EndTimeSeconds),
		duration:      float64(d.DurationSeconds),
		link:          d.Link,
		clicks:        int64(d.TotalClicks),
		createdAt:     d.CreatedAt,
	}
}

func interactionFromList(e upstream.InteractionEntry) interactionUpdate {
	return interactionUpdate{
		src:           sourceList,
		interactionID: e.ID,
		title:         e.Title,
		start:         float64(e.StartTime),
		end:           float64(e.EndTime),
		link:          e.Link,
		clicks:        int64(e.TotalTimesClicked),
	}
}

// mergeInteraction applies u on top of existing. The list endpoint never
// carries type, action type, duration or creation time, so those come from
// existing (or stay zero on first creation).
func mergeInteraction(existing *store.InteractionStat, videoRef int64, u interactionUpdate, loc *time.Location) store.InteractionStat {
	out := store.InteractionStat{VideoRef: videoRef, InteractionID: u.interactionID, CreatedAt: time.Unix(0, 0).UTC()}
	if existing != nil {
		out = *existing
		out.VideoRef = videoRef
	}
	out.Title = u.title
	out.StartTimeSeconds = u.start
	out.EndTimeSeconds = u.end
	out.Link = u.link
	out.TotalClicks = u.clicks
	if u.src == sourceAggregated {
		out.Type = u.typ
		out.ActionType = u.actionType
		out.DurationSeconds = u.duration
		if created, ok := upstream.ParseTime(u.createdAt, loc); ok {
			out.CreatedAt = created
		}
	}
	return out
}

// questionUpdate is the union of fields either question endpoint can report.
type questionUpdate struct {
	src           source
	questionID    int64
	title         string
	typ           string
	videoTime     float64
	avgAnswerTime float64
	totalAnswered int64
	totalCorrect  int64
	createdAt     string
}

func questionFromDetail(d upstream.QuestionDetail) questionUpdate {
	return questionUpdate{
		src:           sourceAggregated,
		questionID:    d.ID,
		title:         d.Title,
		typ:           d.Type,
		videoTime:     float64(d.ActiveAt),
		totalAnswered: int64(d.AmountAnswers),
		totalCorrect:  int64(d.AmountCorrectAnswers),
		createdAt:     d.CreatedAt,
	}
}

func questionFromList(q upstream.Question) questionUpdate {
	return questionUpdate{
		src:           sourceList,
		questionID:    q.ID,
		title:         q.QuestionText,
		typ:           q.QuestionType,
		videoTime:     float64(q.VideoTime),
		avgAnswerTime: float64(q.AverageAnswerTimeSeconds),
		totalAnswered: int64(q.TotalGivenAnswers),
		totalCorrect:  int64(q.TotalCorrectAnswers),
	}
}

// mergeQuestion applies u on top of existing. Only the list endpoint reports
// answer timing; only the aggregated endpoint reports creation time.
func mergeQuestion(existing *store.QuestionStat, videoRef int64, u questionUpdate, loc *time.Location) store.QuestionStat {
	out := store.QuestionStat{VideoRef: videoRef, QuestionID: u.questionID, CreatedAt: time.Unix(0, 0).UTC()}
	if existing != nil {
		out = *existing
		out.VideoRef = videoRef
	}
	out.Title = u.title
	out.Type = u.typ
	out.VideoTimeSeconds = u.videoTime
	out.TotalAnswered = u.totalAnswered
	out.TotalCorrectlyAnswered = u.totalCorrect
	switch u.src {
	case sourceList:
		out.AverageAnswerTimeSeconds = u.avgAnswerTime
	case sourceAggregated:
		if created, ok := upstream.ParseTime(u.createdAt, loc); ok {
			out.CreatedAt = created
		}
	}
	return out
}

// mergeAnswer returns the row to write, or false when the update must be
// dropped: a zero count never overwrites a positive stored count.
func mergeAnswer(existing *store.QuestionAnswer, questionRef int64, a upstream.Answer) (store.QuestionAnswer, bool) {
	if existing != nil && existing.AnsweredCount > 0 && a.AnsweredCount == 0 {
		return *existing, false
	}
	out := store.QuestionAnswer{
		QuestionRef:     questionRef,
		Label:           a.Label.String(),
		AnsweredCount:   int64(a.AnsweredCount),
		IsCorrectAnswer: bool(a.IsCorrectAnswer),
	}
	if existing != nil {
		out.ID = existing.ID
		out.QuestionID = existing.QuestionID
	}
	return out, true
}

func monthlyFromBucket(videoRef int64, b upstream.MonthBucket) (store.MonthlyView, bool) {
	month := strings.TrimSpace(b.Period)
	if month == "" {
		return store.MonthlyView{}, false
	}
	return store.MonthlyView{
		VideoRef:        videoRef,
		Month:           month,
		TotalViews:      int64(b.Total),
		StartedViews:    int64(b.Started),
		FinishedViews:   int64(b.Finished),
		PassedViews:     int64(b.Passed),
		FailedViews:     int64(b.Failed),
		UnfinishedViews: int64(b.Unfinished),
	}, true
}

// unknownAgent is the bucket label the API uses for unattributed views.
const unknownAgent = "unknown"

// sessionsFromBuckets numbers buckets from 1 in response order. Skipped
// "unknown" buckets still consume their position.
func sessionsFromBuckets(videoRef int64, buckets upstream.AgentBuckets, classify func(string) useragent.Agent) []store.ViewSession {
	out := make([]store.ViewSession, 0, len(buckets))
	for i, b := range buckets {
		if b.Label == unknownAgent {
			continue
		}
		agent := classify(b.Label)
		out = append(out, store.ViewSession{
			VideoRef:       videoRef,
			ObjectID:       int64(i + 1),
			ViewerOS:       agent.OS,
			OSVersion:      agent.OSVersion,
			ViewerBrowser:  agent.Browser,
			BrowserVersion: agent.BrowserVersion,
			ViewerDevice:   agent.Device,
			ViewerMobile:   agent.IsMobile,
			IsBot:          agent.IsBot,
			ViewerCount:    b.Count,
		})
	}
	return out
}

func ratingRow(videoRef int64, s rating.Summary) store.VideoRating {
	return store.VideoRating{
		VideoRef:      videoRef,
		RatingID:      s.RatingID,
		AverageRating: s.AverageRating,
		OneStar:       s.OneStar(),
		TwoStar:       s.TwoStar(),
		ThreeStar:     s.ThreeStar(),
		FourStar:      s.FourStar(),
		FiveStar:      s.FiveStar(),
	}
}
