package store

import "time"

// Video is one upstream video. VideoID is the upstream identifier; ID is the
// local surrogate key referenced by the dependent tables.
type Video struct {
	ID           int64     `json:"id"`
	VideoID      int64     `json:"video_id"`
	UUID         string    `json:"uuid"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	CreatedDate  time.Time `json:"created_date"`
	FolderName   string    `json:"folder_name"`
	FolderNumber int64     `json:"folder_number"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VideoStats holds the aggregate counters for a video, one row per video.
type VideoStats struct {
	ID                   int64   `json:"id"`
	VideoRef             int64   `json:"-"`
	VideoID              int64   `json:"video_id"`
	TotalViews           int64   `json:"total_views"`
	StartedViews         int64   `json:"started_views"`
	FinishedViews        int64   `json:"finished_views"`
	InteractionClicks    int64   `json:"interaction_clicks"`
	NumQuestions         int64   `json:"num_questions"`
	VideoDurationSeconds float64 `json:"video_duration_seconds"`
}

// InteractionStat is keyed by (video, interaction_id).
type InteractionStat struct {
	ID               int64     `json:"id"`
	VideoRef         int64     `json:"-"`
	VideoID          int64     `json:"video_id"`
	InteractionID    int64     `json:"interaction_id"`
	Title            string    `json:"title"`
	Type             string    `json:"type"`
	ActionType       string    `json:"action_type"`
	StartTimeSeconds float64   `json:"start_time_seconds"`
	EndTimeSeconds   float64   `json:"end_time_seconds"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Link             string    `json:"link"`
	TotalClicks      int64     `json:"total_clicks"`
	CreatedAt        time.Time `json:"created_at"`
}

// QuestionStat is keyed by (video, question_id).
type QuestionStat struct {
	ID                       int64     `json:"id"`
	VideoRef                 int64     `json:"-"`
	VideoID                  int64     `json:"video_id"`
	QuestionID               int64     `json:"question_id"`
	Title                    string    `json:"title"`
	Type                     string    `json:"type"`
	VideoTimeSeconds         float64   `json:"video_time_seconds"`
	AverageAnswerTimeSeconds float64   `json:"average_answer_time_seconds"`
	TotalAnswered            int64     `json:"total_answered"`
	TotalCorrectlyAnswered   int64     `json:"total_correctly_answered"`
	CreatedAt                time.Time `json:"created_at"`
}

// QuestionAnswer is keyed by (question, label).
type QuestionAnswer struct {
	ID              int64  `json:"id"`
	QuestionRef     int64  `json:"-"`
	QuestionID      int64  `json:"question_id"`
	Label           string `json:"label"`
	AnsweredCount   int64  `json:"answered_count"`
	IsCorrectAnswer bool   `json:"is_correct_answer"`
}

// MonthlyView is keyed by (video, month) where month is "YYYY-MM".
type MonthlyView struct {
	ID              int64  `json:"id"`
	VideoRef        int64  `json:"-"`
	VideoID         int64  `json:"video_id"`
	Month           string `json:"month"`
	TotalViews      int64  `json:"total_views"`
	StartedViews    int64  `json:"started_views"`
	FinishedViews   int64  `json:"finished_views"`
	PassedViews     int64  `json:"passed_views"`
	FailedViews     int64  `json:"failed_views"`
	UnfinishedViews int64  `json:"unfinished_views"`
}

// ViewSession is one viewer-agent bucket, keyed by (video, object_id) where
// object_id is the bucket's position in the upstream response.
type ViewSession struct {
	ID             int64  `json:"id"`
	VideoRef       int64  `json:"-"`
	VideoID        int64  `json:"video_id"`
	ObjectID       int64  `json:"object_id"`
	ViewerOS       string `json:"viewer_os"`
	OSVersion      string `json:"os_version"`
	ViewerBrowser  string `json:"viewer_browser"`
	BrowserVersion string `json:"browser_version"`
	ViewerDevice   string `json:"viewer_device"`
	ViewerMobile   bool   `json:"viewer_mobile"`
	IsBot          bool   `json:"is_bot"`
	ViewerCount    int64  `json:"viewer_count"`
}

// VideoRating is keyed by (video, rating_id); rating_id is the id of the
// rating-type question it was derived from.
type VideoRating struct {
	ID            int64   `json:"id"`
	VideoRef      int64   `json:"-"`
	VideoID       int64   `json:"video_id"`
	RatingID      int64   `json:"rating_id"`
	AverageRating float64 `json:"average_rating"`
	OneStar       int64   `json:"one_star"`
	TwoStar       int64   `json:"two_star"`
	ThreeStar     int64   `json:"three_star"`
	FourStar      int64   `json:"four_star"`
	FiveStar      int64   `json:"five_star"`
}

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// SyncRun records the outcome of one synchronization job.
type SyncRun struct {
	ID              int64      `json:"id"`
	RunID           string     `json:"run_id"`
	Status          RunStatus  `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	VideosTotal     int        `json:"videos_total"`
	VideosSucceeded int        `json:"videos_succeeded"`
	VideosFailed    int        `json:"videos_failed"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// ListOptions filters and pages list queries. Zero values mean "all".
type ListOptions struct {
	VideoID    int64
	QuestionID int64
	Limit      int
	Offset     int
}
