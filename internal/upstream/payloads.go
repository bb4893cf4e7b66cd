package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Text decodes a JSON string, number, or boolean into its textual form. null,
// missing, and non-scalar values decode to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[', 'n':
	default:
		*t = Text(trimmed)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Count is a lenient integer field. It accepts numbers (fractions are
// truncated), numeric strings, and booleans; anything else reads as 0.
type Count int64

func (c *Count) UnmarshalJSON(data []byte) error {
	f, _ := scalarNumber(data)
	*c = Count(f)
	return nil
}

// Float is a lenient decimal field, accepting numbers and numeric strings.
// Anything else reads as 0.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	v, _ := scalarNumber(data)
	*f = Float(v)
	return nil
}

// Flag is a lenient boolean field. true, non-zero numbers, and strings such
// as "1" or "true" read as true; anything else reads as false.
type Flag bool

func (b *Flag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				*b = Flag(parsed)
				return nil
			}
		}
	}
	v, _ := scalarNumber(trimmed)
	*b = v != 0
	return nil
}

// scalarNumber reads a JSON number, numeric string, or boolean. Other values
// report false.
func scalarNumber(data []byte) (float64, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0, false
	}
	var text string
	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	case 't':
		return 1, string(trimmed) == "true"
	case 'f', 'n', '{', '[':
		return 0, false
	default:
		text = string(trimmed)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return float64(n), true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Video is one entry of the paginated /video listing.
type Video struct {
	ID             int64           `json:"id"`
	DisplayName    string          `json:"display_name"`
	UUID           string          `json:"uuid"`
	Status         Text            `json:"status"`
	CreatedAt      string          `json:"created_at"`
	VideoContainer *VideoContainer `json:"video_container"`
}

// VideoContainer is the folder a video lives in.
type VideoContainer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VideoDetail is the subset of /video/{id} the sync job uses.
type VideoDetail struct {
	// Duration in milliseconds.
	Duration Float `json:"duration"`
}

// DurationSeconds converts the millisecond duration to seconds rounded to two
// decimals.
func (d VideoDetail) DurationSeconds() float64 {
	return roundTo(float64(d.Duration)/1000, 2)
}

// AggregatedStatistics is the payload of /video/{id}/aggregated-statistics.
type AggregatedStatistics struct {
	Statistics Aggregates `json:"aggregated_statistics"`
}

type Aggregates struct {
	Views         Count                `json:"views"`
	StartedViews  Count                `json:"started_views"`
	FinishedViews Count                `json:"finished_views"`
	Interactions  InteractionAggregate `json:"interactions"`
	Questions     QuestionAggregate    `json:"questions"`
}

type InteractionAggregate struct {
	TotalClicks Count               `json:"total_clicks"`
	Details     []InteractionDetail `json:"details"`
}

type QuestionAggregate struct {
	Count   Count            `json:"count"`
	Details []QuestionDetail `json:"details"`
}

// InteractionDetail is an interaction as reported by the aggregated endpoint.
type InteractionDetail struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Type             string `json:"type"`
	ActionType       string `json:"action_type"`
	StartTimeSeconds Float  `json:"start_time_seconds"`
	EndTimeSeconds   Float  `json:"end_time_seconds"`
	DurationSeconds  Float  `json:"duration_seconds"`
	Link             string `json:"link"`
	TotalClicks      Count  `json:"total_clicks"`
	CreatedAt        string `json:"created_at"`
}

// QuestionDetail is a question as reported by the aggregated endpoint.
type QuestionDetail struct {
	ID                   int64  `json:"id"`
	Title                string `json:"title"`
	Type                 string `json:"type"`
	ActiveAt             Float  `json:"active_at"`
	AmountAnswers        Count  `json:"amount_answers"`
	AmountCorrectAnswers Count  `json:"amount_correct_answers"`
	CreatedAt            string `json:"created_at"`
}

// MonthBucket is one element of the monthly views breakdown.
type MonthBucket struct {
	Period     string `json:"period"`
	Total      Count  `json:"total"`
	Started    Count  `json:"started"`
	Finished   Count  `json:"finished"`
	Passed     Count  `json:"passed"`
	Failed     Count  `json:"failed"`
	Unfinished Count  `json:"unfinished"`
}

// InteractionEntry is an element of the flat interaction list.
type InteractionEntry struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	StartTime         Float  `json:"start_time"`
	EndTime           Float  `json:"end_time"`
	Link              string `json:"link"`
	TotalTimesClicked Count  `json:"total_times_clicked"`
}

// Question is an element of the flat question list.
type Question struct {
	ID                       int64    `json:"id"`
	QuestionText             string   `json:"question_text"`
	QuestionType             string   `json:"question_type"`
	VideoTime                Float    `json:"video_time"`
	AverageAnswerTimeSeconds Float    `json:"average_answer_time_seconds"`
	TotalGivenAnswers        Count    `json:"total_given_answers"`
	TotalCorrectAnswers      Count    `json:"total_correct_answers"`
	AverageRating            Float    `json:"average_rating"`
	Answers                  []Answer `json:"answers"`
}

// Answer is one answer option of a question with its tally.
type Answer struct {
	Label           Text  `json:"label"`
	AnsweredCount   Count `json:"answered_count"`
	IsCorrectAnswer Flag  `json:"is_correct_answer"`
}

// AgentBucket is one label/count pair of the viewer-agent breakdown.
type AgentBucket struct {
	Label string
	Count int64
}

// AgentBuckets keeps the breakdown in the order the API sent it; positions
// are part of the stored key.
type AgentBuckets []AgentBucket

func (b *AgentBuckets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("agent breakdown: expected object, got %v", tok)
	}
	var out AgentBuckets
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("agent breakdown: unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("agent breakdown %q: %w", key, err)
		}
		out = append(out, AgentBucket{Label: key, Count: countValue(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = out
	return nil
}

// countValue reads a bucket count with the same rules as Count.
func countValue(raw json.RawMessage) int64 {
	f, _ := scalarNumber(raw)
	return int64(f)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses the timestamp formats the API emits. Values without an
// offset are interpreted in loc.
func ParseTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DatePart returns the YYYY-MM-DD prefix of a timestamp string.
func DatePart(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "T "); i >= 0 {
		return value[:i]
	}
	return value
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
