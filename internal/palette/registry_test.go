package palette_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/surveyflow/internal/palette"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

func TestDefaultTemplates(t *testing.T) {
	r := palette.Default()
	assert.Equal(t, []survey.QuestionType{survey.MultipleChoice, survey.TextOpinion, survey.VoiceOpinion}, r.Types())

	cases := []struct {
		qt   survey.QuestionType
		rule survey.RuleKind
	}{
		{survey.MultipleChoice, survey.RuleSelection},
		{survey.TextOpinion, survey.RuleText},
		{survey.VoiceOpinion, survey.RuleAudio},
	}
	for _, tc := range cases {
		t.Run(string(tc.qt), func(t *testing.T) {
			tpl, err := r.Get(tc.qt)
			require.NoError(t, err)
			q := tpl.New("Q3")
			assert.Equal(t, "Q3", q.QuestionID)
			assert.Equal(t, tc.qt, q.QuestionType)
			assert.Equal(t, tc.rule, q.Validation.Kind())
			assert.True(t, survey.IsUnwired(&q))
			assert.Empty(t, survey.CheckQuestion(&q))
		})
	}
}

func TestTemplatesAreIndependent(t *testing.T) {
	tpl, err := palette.Default().Get(survey.MultipleChoice)
	require.NoError(t, err)
	a := tpl.New("Q1")
	b := tpl.New("Q2")
	a.Options[0].Label = "changed"
	a.Validation.Selection.MaxSelections = 5
	assert.Equal(t, "Option 1", b.Options[0].Label)
	assert.Equal(t, 1, b.Validation.Selection.MaxSelections)
}

func TestRegistry(t *testing.T) {
	r := palette.NewRegistry()
	_, err := r.Get("matrix")
	assert.Error(t, err)

	matrix := palette.Template{
		Type:  "matrix",
		Label: "Matrix",
		New: func(id string) survey.Question {
			return survey.Question{QuestionID: id, QuestionType: "matrix"}
		},
	}
	r.Register(matrix)
	tpl, err := r.Get("matrix")
	require.NoError(t, err)
	assert.Equal(t, "Matrix", tpl.Label)

	assert.Panics(t, func() { r.Register(matrix) })
}
