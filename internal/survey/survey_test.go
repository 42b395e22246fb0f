package survey_test

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

func TestRouteJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind survey.RouteKind
		out  string
	}{
		{"null", `null`, survey.RouteNone, `null`},
		{"empty string", `""`, survey.RouteNone, `null`},
		{"single", `"Q2"`, survey.RouteSingle, `"Q2"`},
		{"conditional", `{"1":"Q2","2":"END"}`, survey.RouteConditional, `{"1":"Q2","2":"END"}`},
		{"empty map", `{}`, survey.RouteConditional, `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r survey.Route
			require.NoError(t, json.Unmarshal([]byte(tc.in), &r))
			assert.Equal(t, tc.kind, r.Kind())
			b, err := json.Marshal(r)
			require.NoError(t, err)
			assert.JSONEq(t, tc.out, string(b))
		})
	}

	var r survey.Route
	assert.Error(t, json.Unmarshal([]byte(`42`), &r))
}

func TestRouteYAML(t *testing.T) {
	var q struct {
		A survey.Route `yaml:"a"`
		B survey.Route `yaml:"b"`
		C survey.Route `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: ~\nb: Q3\nc:\n  yes: Q4\n  no: END\n"), &q))
	assert.Equal(t, survey.RouteNone, q.A.Kind())
	assert.Equal(t, "Q3", q.B.Target())
	assert.Equal(t, map[string]string{"yes": "Q4", "no": "END"}, q.C.Branches())
}

func TestRoutePruneAndEqual(t *testing.T) {
	r := survey.ConditionalRoutes(map[string]string{"1": "Q2", "2": "Q3", "3": "END"})
	pruned, removed := r.Prune(map[string]struct{}{"1": {}, "3": {}})
	assert.Equal(t, []string{"2"}, removed)
	assert.True(t, pruned.Equal(survey.ConditionalRoutes(map[string]string{"1": "Q2", "3": "END"})))
	assert.False(t, pruned.Equal(r))

	single, removed := survey.SinglePath("Q2").Prune(nil)
	assert.Nil(t, removed)
	assert.Equal(t, "Q2", single.Target())

	assert.True(t, survey.IsEndTarget("END"))
	assert.True(t, survey.IsEndTarget("end"))
	assert.False(t, survey.IsEndTarget("Q9"))
}

func TestPredicates(t *testing.T) {
	q := &survey.Question{QuestionID: "Q1"}
	assert.True(t, survey.IsUnwired(q))
	assert.False(t, survey.IsBranching(q))

	q.NextQuestion = survey.SinglePath("Q2")
	assert.True(t, survey.IsSinglePath(q))
	assert.False(t, survey.IsUnwired(q))

	q.NextQuestion = survey.ConditionalRoutes(nil)
	assert.True(t, survey.IsBranching(q))
	assert.True(t, survey.IsUnwired(nil))
}

func TestQuestionValidationByType(t *testing.T) {
	doc := `{
	  "questionId": "Q1", "title": "t", "questionType": "text_opinion",
	  "validation": {"minLength": 2, "maxLength": 20, "pattern": "^[a-z]+$"},
	  "nextQuestion": "Q2"
	}`
	var q survey.Question
	require.NoError(t, json.Unmarshal([]byte(doc), &q))
	require.NotNil(t, q.Validation.Text)
	assert.Equal(t, survey.RuleText, q.Validation.Kind())
	assert.Equal(t, 20, q.Validation.Text.MaxLength)
	assert.Equal(t, "Q2", q.NextQuestion.Target())

	out, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"type":"text"`)

	bad := `{"questionId": "Q1", "questionType": "text_opinion", "validation": {"type": "matrix"}}`
	assert.Error(t, json.Unmarshal([]byte(bad), &q))

	mismatched := `{"questionId": "Q1", "questionType": "text_opinion", "validation": {"type": "selection", "maxSelections": 1}}`
	err = json.Unmarshal([]byte(mismatched), &q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selection rule does not apply to text_opinion questions")

	var custom survey.Question
	require.NoError(t, json.Unmarshal([]byte(`{"questionId": "Q2", "questionType": "matrix", "validation": {"type": "selection", "maxSelections": 3}}`), &custom))
	require.NotNil(t, custom.Validation.Selection)
	assert.Equal(t, 3, custom.Validation.Selection.MaxSelections)
}

func TestValidationFor(t *testing.T) {
	v := survey.Validation{
		Selection: &survey.SelectionRule{MaxSelections: 2},
		Text:      &survey.TextRule{MaxLength: 10},
	}
	assert.Equal(t, survey.RuleText, v.For(survey.TextOpinion).Kind())
	assert.Nil(t, v.For(survey.TextOpinion).Selection)
	assert.Equal(t, survey.RuleSelection, v.For(survey.MultipleChoice).Kind())
	assert.Equal(t, survey.RuleNone, v.For(survey.VoiceOpinion).Kind())
	assert.Equal(t, v, v.For("matrix"))
}

func TestQuestionPatch(t *testing.T) {
	q := &survey.Question{
		QuestionID:   "Q1",
		Title:        "Pick",
		QuestionType: survey.MultipleChoice,
		Options:      []survey.Option{{Value: "1", Label: "A"}, {Value: "2", Label: "B"}},
		NextQuestion: survey.ConditionalRoutes(map[string]string{"1": "Q2", "2": "Q3"}),
	}

	var p survey.QuestionPatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Pick one","options":[{"value":"1","label":"A"}]}`), &p))
	assert.Nil(t, p.NextQuestion)
	patched, pruned, err := p.Apply(q)
	require.NoError(t, err)
	assert.Equal(t, "Pick one", patched.Title)
	assert.Equal(t, []string{"2"}, pruned)
	assert.Equal(t, map[string]string{"1": "Q2"}, patched.NextQuestion.Branches())
	assert.Equal(t, "Pick", q.Title, "original must be untouched")

	require.NoError(t, json.Unmarshal([]byte(`{"nextQuestion":null}`), &p))
	require.NotNil(t, p.NextQuestion)
	patched, _, err = p.Apply(q)
	require.NoError(t, err)
	assert.True(t, survey.IsUnwired(patched))

	require.NoError(t, json.Unmarshal([]byte(`{"questionId":"Q9"}`), &p))
	_, _, err = p.Apply(q)
	assert.ErrorIs(t, err, survey.ErrImmutableID)

	dup := []survey.Option{{Value: "a", Label: "A"}, {Value: "a", Label: "B"}}
	_, _, err = survey.QuestionPatch{Options: &dup}.Apply(q)
	assert.ErrorIs(t, err, survey.ErrDuplicateOption)
	assert.Len(t, q.Options, 2)

	toText := survey.TextOpinion
	q.Validation = survey.Validation{Selection: &survey.SelectionRule{MinSelections: 1, MaxSelections: 1}}
	patched, _, err = survey.QuestionPatch{QuestionType: &toText}.Apply(q)
	require.NoError(t, err)
	assert.Equal(t, survey.RuleNone, patched.Validation.Kind(), "selection rule dropped with the type change")

	_, _, err = survey.QuestionPatch{QuestionType: &toText, Validation: []byte(`{"type":"selection"}`)}.Apply(q)
	assert.Error(t, err)
}

func TestCheckQuestion(t *testing.T) {
	ok := &survey.Question{
		Title: "t", Prompt: "p", QuestionType: survey.MultipleChoice,
		Options: []survey.Option{{Value: "1", Label: "A"}, {Value: "2", Label: "B"}},
	}
	assert.Empty(t, survey.CheckQuestion(ok))

	bad := &survey.Question{
		QuestionType: survey.MultipleChoice,
		Options:      []survey.Option{{Value: "1", Label: "A"}, {Value: "1", Label: " "}},
	}
	assert.Equal(t, []string{
		"question title is required",
		"prompt text is required",
		`option value "1" is duplicated`,
		`option "1" needs a label`,
	}, survey.CheckQuestion(bad))

	voice := &survey.Question{Title: "t", PromptType: survey.VoicePrompt, QuestionType: survey.VoiceOpinion}
	assert.Empty(t, survey.CheckQuestion(voice))
}

func TestNewSurvey(t *testing.T) {
	s := survey.New()
	assert.Regexp(t, regexp.MustCompile(`^CS[0-9A-F]{7}$`), s.SurveyID)
	require.Len(t, s.Sections, 1)
	assert.Equal(t, "SEC1", s.Sections[0].SectionID)
	assert.NotNil(t, s.Questions)

	s.Questions = append(s.Questions,
		survey.Question{QuestionID: "Q4"},
		survey.Question{QuestionID: "Q12"},
		survey.Question{QuestionID: "intro"},
	)
	assert.Equal(t, 12, s.MaxQuestionNumber())
	assert.Equal(t, "Q13", survey.QuestionIDFor(s.MaxQuestionNumber()+1))

	c := s.Clone()
	c.Questions[0].QuestionID = "changed"
	c.Sections[0].QuestionIDs = append(c.Sections[0].QuestionIDs, "x")
	assert.Equal(t, "Q4", s.Questions[0].QuestionID)
	assert.Empty(t, s.Sections[0].QuestionIDs)
}
