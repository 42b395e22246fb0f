package navigation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/surveyflow/internal/condition"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// MsgRequired is returned for an empty answer to a required question.
const MsgRequired = "This field is required."

// Verdict is the outcome of ValidateAnswer.
type Verdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

var accepted = Verdict{Valid: true}

func reject(format string, args ...interface{}) Verdict {
	return Verdict{Error: fmt.Sprintf(format, args...)}
}

// ValidateAnswer checks an answer against the rule of the question's type.
// Rules that do not fit the answer's shape are skipped: selection bounds apply
// to lists, text bounds to strings and duration bounds to numbers.
func ValidateAnswer(q *survey.Question, answer interface{}) Verdict {
	if isEmpty(answer) {
		if q.Required {
			return reject(MsgRequired)
		}
		return accepted
	}
	v := q.Validation.For(q.QuestionType)
	if r := v.Selection; r != nil {
		if n, isList := listLen(answer); isList {
			if r.MinSelections > 0 && n < r.MinSelections {
				return reject("Select at least %d options.", r.MinSelections)
			}
			if r.MaxSelections > 0 && n > r.MaxSelections {
				return reject("Select at most %d options.", r.MaxSelections)
			}
		}
	}
	if r := v.Text; r != nil {
		if s, isText := answer.(string); isText {
			n := utf8.RuneCountInString(s)
			if r.MinLength > 0 && n < r.MinLength {
				return reject("Minimum %d characters required.", r.MinLength)
			}
			if r.MaxLength > 0 && n > r.MaxLength {
				return reject("Maximum %d characters allowed.", r.MaxLength)
			}
			if r.Pattern != "" {
				if re, err := regexp.Compile(r.Pattern); err == nil && !re.MatchString(s) {
					return reject("Invalid format.")
				}
			}
		}
	}
	if r := v.Audio; r != nil {
		if d, isNumber := number(answer); isNumber {
			if r.MinDuration > 0 && d < r.MinDuration {
				return reject("Recording must be at least %s seconds.", seconds(r.MinDuration))
			}
			if r.MaxDuration > 0 && d > r.MaxDuration {
				return reject("Recording must be at most %s seconds.", seconds(r.MaxDuration))
			}
		}
	}
	return accepted
}

func listLen(v interface{}) (int, bool) {
	switch x := v.(type) {
	case []string:
		return len(x), true
	case []interface{}:
		return len(x), true
	}
	return 0, false
}

func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func seconds(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Score sums the option scores of the selected answers to multiple choice
// questions, rounded to 2 dp. Unknown values score nothing.
func Score(doc *survey.Survey, answers map[string]interface{}) float64 {
	var total float64
	for i := range doc.Questions {
		q := &doc.Questions[i]
		if q.QuestionType != survey.MultipleChoice {
			continue
		}
		a, answered := answers[q.QuestionID]
		if !answered {
			continue
		}
		for _, v := range selected(a) {
			if o, found := q.Option(v); found {
				total += o.Score
			}
		}
	}
	return math.Round(total*100) / 100
}

func selected(a interface{}) []string {
	switch x := a.(type) {
	case []string:
		return x
	case []interface{}:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = condition.Text(e)
		}
		return out
	case nil:
		return nil
	}
	return []string{condition.Text(a)}
}
