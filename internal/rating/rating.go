// Package rating folds the rating-type question of a video's question list
// into a star summary.
package rating

import "vidstats/internal/upstream"

// QuestionType marks the question that carries star ratings.
const QuestionType = "rating"

// Summary is the star distribution of one rating question.
type Summary struct {
	RatingID      int64
	AverageRating float64
	Stars         [5]int64
}

// OneStar through FiveStar read Stars by star count.
func (s Summary) OneStar() int64   { return s.Stars[0] }
func (s Summary) TwoStar() int64   { return s.Stars[1] }
func (s Summary) ThreeStar() int64 { return s.Stars[2] }
func (s Summary) FourStar() int64  { return s.Stars[3] }
func (s Summary) FiveStar() int64  { return s.Stars[4] }

// Extract returns the summary of the first question whose type is "rating".
// Labels other than "1".."5" are ignored; later rating questions are too. An
// integer label such as 3 decodes to the text "3" and counts as that star.
func Extract(questions []upstream.Question) (Summary, bool) {
	for _, q := range questions {
		if q.QuestionType != QuestionType {
			continue
		}
		summary := Summary{RatingID: q.ID, AverageRating: float64(q.AverageRating)}
		for _, answer := range q.Answers {
			if idx, ok := starIndex(string(answer.Label)); ok {
				summary.Stars[idx] = int64(answer.AnsweredCount)
			}
		}
		return summary, true
	}
	return Summary{}, false
}

func starIndex(label string) (int, bool) {
	if len(label) != 1 || label[0] < '1' || label[0] > '5' {
		return 0, false
	}
	return int(label[0] - '1'), true
}
