package reconcile

// Step names one reconciliation step.
type Step string

const (
	StepVideo        Step = "video"
	StepDetail       Step = "detail"
	StepAggregated   Step = "aggregated_statistics"
	StepMonthlyViews Step = "monthly_views"
	StepViewSessions Step = "view_sessions"
	StepInteractions Step = "interactions"
	StepQuestions    Step = "questions"
	StepRating       Step = "rating"
)

// Report summarizes what Reconcile did for one video.
type Report struct {
	VideoID           int64
	Applied           []Step
	Skipped           []Step
	Rows              int
	SuppressedAnswers int
}

func (r *Report) applied(step Step, rows int) {
	r.Applied = append(r.Applied, step)
	r.Rows += rows
}

func (r *Report) skipped(step Step) {
	r.Skipped = append(r.Skipped, step)
}

// Did reports whether step was applied.
func (r Report) Did(step Step) bool {
	for _, s := range r.Applied {
		if s == step {
			return true
		}
	}
	return false
}
