package navigation

import (
	"github.com/gyaneshwarpardhi/surveyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// State of a respondent run.
type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Runner is one respondent's pass through a document. It is not safe for
// concurrent use.
type Runner struct {
	doc     *survey.Survey
	current string
	answers map[string]interface{}
	history []string
	state   State
}

// Snapshot is a copy of a runner's state.
type Snapshot struct {
	State             State                  `json:"state"`
	CurrentQuestionID string                 `json:"currentQuestionId,omitempty"`
	Answers           map[string]interface{} `json:"answers"`
	History           []string               `json:"history"`
	Score             float64                `json:"score"`
}

// NewRunner starts a run on a copy of doc.
func NewRunner(doc *survey.Survey) *Runner {
	r := &Runner{doc: doc.Clone()}
	r.Reset()
	return r
}

// EntryQuestion is the first question of the first section, falling back to
// the first question of the document. It returns "" for an empty survey.
func EntryQuestion(doc *survey.Survey) string {
	if len(doc.Sections) > 0 && len(doc.Sections[0].QuestionIDs) > 0 {
		if id := doc.Sections[0].QuestionIDs[0]; hasQuestion(doc, id) {
			return id
		}
	}
	if len(doc.Questions) > 0 {
		return doc.Questions[0].QuestionID
	}
	return ""
}

func hasQuestion(doc *survey.Survey, id string) bool {
	_, ok := doc.Question(id)
	return ok
}

// Reset clears answers and history and returns to the entry question.
func (r *Runner) Reset() {
	r.answers = make(map[string]interface{})
	r.history = nil
	r.current = EntryQuestion(r.doc)
	r.state = StateActive
	if r.current == "" {
		r.state = StateCompleted
	}
}

func (r *Runner) State() State { return r.state }

func (r *Runner) Completed() bool { return r.state == StateCompleted }

// Current returns the active question, or nil once completed.
func (r *Runner) Current() *survey.Question {
	if r.state != StateActive {
		return nil
	}
	q, _ := r.doc.Question(r.current)
	return q
}

// SetAnswer records the answer to the current question.
func (r *Runner) SetAnswer(value interface{}) bool {
	if r.state != StateActive {
		return false
	}
	r.answers[r.current] = value
	return true
}

// ValidateCurrent checks the stored answer of the current question.
func (r *Runner) ValidateCurrent() Verdict {
	q := r.Current()
	if q == nil {
		return accepted
	}
	return ValidateAnswer(q, r.answers[r.current])
}

// Next validates the current answer and advances. An invalid answer leaves the
// runner where it is.
func (r *Runner) Next() (Step, Verdict) {
	if r.state != StateActive {
		return end(RuleEnd), accepted
	}
	if v := r.ValidateCurrent(); !v.Valid {
		metrics.AnswersRejected.Inc()
		return Step{NextQuestionID: r.current, Rule: RuleRejected}, v
	}
	step := GetNext(r.doc, r.current, r.answers)
	metrics.NavigationSteps.WithLabelValues(string(step.Rule)).Inc()

	r.history = append(r.history, r.current)
	if step.EndOfSurvey || !hasQuestion(r.doc, step.NextQuestionID) {
		r.current = ""
		r.state = StateCompleted
		return end(step.Rule), accepted
	}
	r.current = step.NextQuestionID
	return step, accepted
}

// Prev moves back to the previously visited question. Answers are kept.
func (r *Runner) Prev() bool {
	if len(r.history) == 0 {
		return false
	}
	last := len(r.history) - 1
	r.current = r.history[last]
	r.history = r.history[:last]
	r.state = StateActive
	return true
}

func (r *Runner) Answers() map[string]interface{} {
	out := make(map[string]interface{}, len(r.answers))
	for k, v := range r.answers {
		out[k] = v
	}
	return out
}

func (r *Runner) History() []string {
	return append([]string(nil), r.history...)
}

func (r *Runner) Snapshot() Snapshot {
	return Snapshot{
		State:             r.state,
		CurrentQuestionID: r.current,
		Answers:           r.Answers(),
		History:           r.History(),
		Score:             Score(r.doc, r.answers),
	}
}
