package navigation_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/surveyflow/internal/navigation"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

func doc(sections []survey.Section, qs ...survey.Question) *survey.Survey {
	return &survey.Survey{Sections: sections, Questions: qs}
}

func section(id string, ids ...string) survey.Section {
	return survey.Section{SectionID: id, QuestionIDs: ids}
}

func q(id, sectionID string, next survey.Route) survey.Question {
	return survey.Question{QuestionID: id, SectionID: sectionID, QuestionType: survey.TextOpinion, NextQuestion: next}
}

func choice(id, sectionID string, next survey.Route, values ...string) survey.Question {
	out := survey.Question{QuestionID: id, SectionID: sectionID, QuestionType: survey.MultipleChoice, NextQuestion: next}
	for _, v := range values {
		out.Options = append(out.Options, survey.Option{Value: v, Label: v, Score: float64(len(v))})
	}
	return out
}

func TestLinearScenario(t *testing.T) {
	d := doc([]survey.Section{section("S1", "Q1", "Q2")},
		q("Q1", "S1", survey.SinglePath("Q2")),
		q("Q2", "S1", survey.NoRoute()),
	)
	step := navigation.GetNext(d, "Q1", map[string]interface{}{})
	assert.Equal(t, "Q2", step.NextQuestionID)
	assert.False(t, step.EndOfSurvey)

	step = navigation.GetNext(d, "Q2", map[string]interface{}{})
	assert.True(t, step.EndOfSurvey)
	assert.Empty(t, step.NextQuestionID)

	raw, err := json.Marshal(step)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nextQuestionId": null, "endOfSurvey": true, "rule": "end"}`, string(raw))
}

func TestGetNext(t *testing.T) {
	branch := survey.ConditionalRoutes(map[string]string{"yes": "Q2", "no": "Q3", "3": "Q4", "a,b": "Q4", "stop": survey.EndSentinel})
	base := doc(
		[]survey.Section{section("S1", "Q1", "Q2"), section("S2"), section("S3", "Q3", "Q4")},
		choice("Q1", "S1", branch, "yes", "no", "3", "stop"),
		q("Q2", "S1", survey.NoRoute()),
		q("Q3", "S3", survey.NoRoute()),
		q("Q4", "S3", survey.NoRoute()),
	)
	cases := []struct {
		name    string
		current string
		answers map[string]interface{}
		want    string
		end     bool
		rule    navigation.Rule
	}{
		{"branch by answer", "Q1", map[string]interface{}{"Q1": "no"}, "Q3", false, navigation.RuleBranch},
		{"numeric answer stringified", "Q1", map[string]interface{}{"Q1": float64(3)}, "Q4", false, navigation.RuleBranch},
		{"multi answer joined", "Q1", map[string]interface{}{"Q1": []interface{}{"a", "b"}}, "Q4", false, navigation.RuleBranch},
		{"branch to END", "Q1", map[string]interface{}{"Q1": "stop"}, "", true, navigation.RuleBranch},
		{"unmatched answer falls back to section", "Q1", map[string]interface{}{"Q1": "maybe"}, "Q2", false, navigation.RuleSection},
		{"no answer falls back to section", "Q1", nil, "Q2", false, navigation.RuleSection},
		{"empty next section is not skipped", "Q2", nil, "", true, navigation.RuleEnd},
		{"within last section", "Q3", nil, "Q4", false, navigation.RuleSection},
		{"last question", "Q4", nil, "", true, navigation.RuleEnd},
		{"unknown question", "Q9", nil, "", true, navigation.RuleUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step := navigation.GetNext(base, tc.current, tc.answers)
			assert.Equal(t, tc.want, step.NextQuestionID)
			assert.Equal(t, tc.end, step.EndOfSurvey)
			assert.Equal(t, tc.rule, step.Rule)
		})
	}
}

func TestCrossSection(t *testing.T) {
	d := doc([]survey.Section{section("S1", "Q1"), section("S2", "Q2")},
		q("Q1", "S1", survey.NoRoute()),
		q("Q2", "S2", survey.NoRoute()),
	)
	step := navigation.GetNext(d, "Q1", nil)
	assert.Equal(t, "Q2", step.NextQuestionID)
	assert.Equal(t, navigation.RuleNextSection, step.Rule)
}

func TestLayoutConditions(t *testing.T) {
	d := doc([]survey.Section{section("S1", "Q1", "Q2", "Q3")},
		q("Q1", "S1", survey.NoRoute()),
		q("Q2", "S1", survey.NoRoute()),
		q("Q3", "S1", survey.NoRoute()),
	)
	d.Layout = &survey.Layout{Edges: []survey.LayoutEdge{
		{ID: "e0", Source: "Q1", Target: "Q2", SourceHandle: "output-yes", Data: &survey.EdgeData{Condition: "yes"}},
		{ID: "e1", Source: "Q1", Target: "Q3", Data: &survey.EdgeData{Condition: "value =="}},
		{ID: "e2", Source: "Q1", Target: "Q3", Data: &survey.EdgeData{Condition: "value == 'skip'"}},
		{ID: "e3", Source: "Q1", Target: "end", Data: &survey.EdgeData{Condition: "value == quit"}},
	}}

	step := navigation.GetNext(d, "Q1", map[string]interface{}{"Q1": "skip"})
	assert.Equal(t, "Q3", step.NextQuestionID)
	assert.Equal(t, navigation.RuleCondition, step.Rule)

	step = navigation.GetNext(d, "Q1", map[string]interface{}{"Q1": "quit"})
	assert.True(t, step.EndOfSurvey)

	// plain option tokens and malformed conditions never match
	step = navigation.GetNext(d, "Q1", map[string]interface{}{"Q1": "yes"})
	assert.Equal(t, "Q2", step.NextQuestionID)
	assert.Equal(t, navigation.RuleSection, step.Rule)
}

func TestGetNextIsDeterministic(t *testing.T) {
	d := doc([]survey.Section{section("S1", "Q1", "Q2", "Q3")},
		choice("Q1", "S1", survey.ConditionalRoutes(map[string]string{"a": "Q3"}), "a", "b"),
		q("Q2", "S1", survey.NoRoute()),
		q("Q3", "S1", survey.NoRoute()),
	)
	answers := map[string]interface{}{"Q1": "a"}
	before := d.Clone()
	first := navigation.GetNext(d, "Q1", answers)
	second := navigation.GetNext(d, "Q1", answers)
	assert.Equal(t, first, second)
	assert.Equal(t, before, d)
	assert.Equal(t, map[string]interface{}{"Q1": "a"}, answers)
}

func TestValidateAnswer(t *testing.T) {
	required := &survey.Question{Required: true, QuestionType: survey.TextOpinion}
	text := &survey.Question{QuestionType: survey.TextOpinion, Validation: survey.Validation{Text: &survey.TextRule{MinLength: 5, MaxLength: 100}}}
	pattern := &survey.Question{QuestionType: survey.TextOpinion, Validation: survey.Validation{Text: &survey.TextRule{Pattern: `^\d+$`}}}
	selection := &survey.Question{QuestionType: survey.MultipleChoice, Validation: survey.Validation{Selection: &survey.SelectionRule{MinSelections: 1, MaxSelections: 2}}}
	audio := &survey.Question{QuestionType: survey.VoiceOpinion, Validation: survey.Validation{Audio: &survey.AudioRule{MinDuration: 5, MaxDuration: 120}}}
	mismatched := &survey.Question{QuestionType: survey.TextOpinion, Validation: survey.Validation{Selection: &survey.SelectionRule{MaxSelections: 1}}}

	cases := []struct {
		name   string
		q      *survey.Question
		answer interface{}
		valid  bool
		err    string
	}{
		{"required empty string", required, "", false, navigation.MsgRequired},
		{"required nil", required, nil, false, navigation.MsgRequired},
		{"required empty list", required, []string{}, false, navigation.MsgRequired},
		{"optional empty", text, "", true, ""},
		{"too short", text, "hi", false, "Minimum 5 characters required."},
		{"long enough", text, strings.Repeat("x", 50), true, ""},
		{"too long", text, strings.Repeat("x", 101), false, "Maximum 100 characters allowed."},
		{"multibyte counted by rune", text, "안녕하세요", true, ""},
		{"text rule skips list", text, []string{"a"}, true, ""},
		{"pattern mismatch", pattern, "12a", false, "Invalid format."},
		{"pattern match", pattern, "123", true, ""},
		{"too many selections", selection, []interface{}{"a", "b", "c"}, false, "Select at most 2 options."},
		{"selection rule skips string", selection, "a", true, ""},
		{"short recording", audio, float64(3), false, "Recording must be at least 5 seconds."},
		{"recording ok", audio, 30, true, ""},
		{"audio rule skips text", audio, "file.mp3", true, ""},
		{"rule of another type is ignored", mismatched, []interface{}{"a", "b"}, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := navigation.ValidateAnswer(tc.q, tc.answer)
			assert.Equal(t, tc.valid, got.Valid)
			assert.Equal(t, tc.err, got.Error)
		})
	}
}

func TestScore(t *testing.T) {
	d := doc(nil,
		choice("Q1", "", survey.NoRoute(), "a", "bb", "ccc"),
		choice("Q2", "", survey.NoRoute(), "a", "bb"),
		q("Q3", "", survey.NoRoute()),
	)
	total := navigation.Score(d, map[string]interface{}{
		"Q1": []interface{}{"bb", "ccc"},
		"Q2": "a",
		"Q3": "free text",
	})
	assert.Equal(t, float64(6), total)
}

func TestRunner(t *testing.T) {
	d := doc([]survey.Section{section("S1", "Q1", "Q2", "Q3")},
		choice("Q1", "S1", survey.ConditionalRoutes(map[string]string{"a": "Q3"}), "a", "b"),
		q("Q2", "S1", survey.NoRoute()),
		q("Q3", "S1", survey.NoRoute()),
	)
	d.Questions[0].Required = true
	r := navigation.NewRunner(d)
	require.Equal(t, "Q1", r.Current().QuestionID)

	step, verdict := r.Next()
	assert.False(t, verdict.Valid)
	assert.Equal(t, navigation.MsgRequired, verdict.Error)
	assert.Equal(t, navigation.RuleRejected, step.Rule)
	assert.Equal(t, "Q1", r.Current().QuestionID)

	require.True(t, r.SetAnswer("a"))
	step, verdict = r.Next()
	assert.True(t, verdict.Valid)
	assert.Equal(t, "Q3", step.NextQuestionID)
	assert.Equal(t, []string{"Q1"}, r.History())

	step, _ = r.Next()
	assert.True(t, step.EndOfSurvey)
	assert.True(t, r.Completed())
	assert.Nil(t, r.Current())
	assert.False(t, r.SetAnswer("late"))

	require.True(t, r.Prev())
	assert.Equal(t, "Q3", r.Current().QuestionID)
	require.True(t, r.Prev())
	assert.Equal(t, "Q1", r.Current().QuestionID)
	assert.Equal(t, map[string]interface{}{"Q1": "a"}, r.Answers(), "prev keeps answers")
	assert.False(t, r.Prev())

	snap := r.Snapshot()
	assert.Equal(t, navigation.StateActive, snap.State)
	assert.Equal(t, float64(1), snap.Score)

	r.Reset()
	assert.Empty(t, r.Answers())
	assert.Empty(t, r.History())
}

func TestEntryQuestion(t *testing.T) {
	assert.Equal(t, "", navigation.EntryQuestion(doc(nil)))
	assert.Equal(t, "Q2", navigation.EntryQuestion(doc(nil, q("Q2", "", survey.NoRoute()), q("Q1", "", survey.NoRoute()))))
	assert.Equal(t, "Q1", navigation.EntryQuestion(doc(
		[]survey.Section{section("S1", "Q1")},
		q("Q2", "", survey.NoRoute()), q("Q1", "", survey.NoRoute()),
	)))
	assert.True(t, navigation.NewRunner(doc(nil)).Completed())
}
