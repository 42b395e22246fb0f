// Package navigation drives a respondent through a compiled survey document.
// It works on Question.nextQuestion and the section order only; the editing
// graph's start and end nodes are unknown here.
package navigation

import (
	"encoding/json"
	"strings"

	"github.com/gyaneshwarpardhi/surveyflow/internal/condition"
	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// Rule names the step of GetNext that produced a result.
type Rule string

const (
	RuleRoute       Rule = "route"
	RuleBranch      Rule = "branch"
	RuleCondition   Rule = "condition"
	RuleSection     Rule = "section"
	RuleNextSection Rule = "next_section"
	RuleEnd         Rule = "end"
	RuleUnknown     Rule = "unknown_question"
	// RuleRejected marks a runner step that stayed put on an invalid answer.
	RuleRejected    Rule = "rejected"
)

// Step is the outcome of GetNext.
type Step struct {
	NextQuestionID string
	EndOfSurvey    bool
	Rule           Rule
}

func (s Step) MarshalJSON() ([]byte, error) {
	var next *string
	if !s.EndOfSurvey {
		next = &s.NextQuestionID
	}
	return json.Marshal(struct {
		NextQuestionID *string `json:"nextQuestionId"`
		EndOfSurvey    bool    `json:"endOfSurvey"`
		Rule           Rule    `json:"rule"`
	}{next, s.EndOfSurvey, s.Rule})
}

func end(rule Rule) Step { return Step{EndOfSurvey: true, Rule: rule} }

func goTo(target string, rule Rule) Step {
	if target == "" || survey.IsEndTarget(target) {
		return end(rule)
	}
	return Step{NextQuestionID: target, Rule: rule}
}

// GetNext returns the question after currentID. First match wins:
//
//  1. nextQuestion is a single id
//  2. nextQuestion is a branch map and the current answer is a key
//  3. a layout edge from the question carries a condition that matches
//  4. the next id in the question's section
//  5. the first id of the following section
//  6. end of survey
//
// An unknown currentID ends the survey. GetNext does not modify its inputs.
func GetNext(doc *survey.Survey, currentID string, answers map[string]interface{}) Step {
	q, ok := doc.Question(currentID)
	if !ok {
		return end(RuleUnknown)
	}
	answer := answers[currentID]

	switch q.NextQuestion.Kind() {
	case survey.RouteSingle:
		return goTo(q.NextQuestion.Target(), RuleRoute)
	case survey.RouteConditional:
		if !isEmpty(answer) {
			if target, ok := q.NextQuestion.Lookup(condition.Text(answer)); ok {
				return goTo(target, RuleBranch)
			}
		}
	}

	if target, ok := matchLayout(doc, currentID, answers); ok {
		return goTo(target, RuleCondition)
	}

	sec := doc.SectionOf(q)
	if sec < 0 {
		return end(RuleEnd)
	}
	ids := doc.Sections[sec].QuestionIDs
	if i := survey.IndexOf(ids, currentID); i >= 0 && i < len(ids)-1 {
		return goTo(ids[i+1], RuleSection)
	}
	if sec < len(doc.Sections)-1 {
		if next := doc.Sections[sec+1].QuestionIDs; len(next) > 0 {
			return goTo(next[0], RuleNextSection)
		}
	}
	return end(RuleEnd)
}

// matchLayout looks for a layout edge leaving currentID whose condition is an
// expression that matches. Option ports and plain option tokens are already
// covered by the branch map and are skipped.
func matchLayout(doc *survey.Survey, currentID string, answers map[string]interface{}) (string, bool) {
	if doc.Layout == nil {
		return "", false
	}
	scope := condition.Answers{Current: currentID, Values: answers}
	for _, e := range doc.Layout.Edges {
		if strings.TrimPrefix(e.Source, "question-") != currentID {
			continue
		}
		if _, ok := graph.HandleOption(e.SourceHandle); ok {
			continue
		}
		cond := strings.TrimSpace(e.Condition())
		if cond == "" || !strings.ContainsAny(cond, " \t") {
			continue
		}
		if condition.Match(cond, scope) {
			return strings.TrimPrefix(e.Target, "question-"), true
		}
	}
	return "", false
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	case []interface{}:
		return len(x) == 0
	}
	return false
}
