package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
	"github.com/gyaneshwarpardhi/surveyflow/internal/validator"
)

func question(id string, qt survey.QuestionType, values ...string) *survey.Question {
	q := &survey.Question{QuestionID: id, Title: "t " + id, Prompt: "p", QuestionType: qt}
	for _, v := range values {
		q.Options = append(q.Options, survey.Option{Value: v, Label: v})
	}
	return q
}

// build creates start, end and the given questions, then adds edges written
// as "source>target" or "source>target@option".
func build(t *testing.T, qs []*survey.Question, edges ...string) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.AddNode(graph.NewStartNode(survey.Position{}))
	g.AddNode(graph.NewEndNode(survey.Position{}))
	for _, q := range qs {
		g.AddNode(graph.NewQuestionNode(q, survey.Position{}))
	}
	for _, spec := range edges {
		src, dst, opt := splitEdge(spec)
		handle := ""
		if opt != "" {
			handle = graph.OptionHandle(opt)
		}
		g.AddEdge(graph.NewEdge(src, dst, handle, ""))
	}
	return g
}

func splitEdge(spec string) (src, dst, opt string) {
	src, dst, _ = strings.Cut(spec, ">")
	dst, opt, _ = strings.Cut(dst, "@")
	return src, dst, opt
}

func kinds(ds []validator.Diagnostic) []validator.Kind {
	out := make([]validator.Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func TestLinearSurveyIsClean(t *testing.T) {
	g := build(t,
		[]*survey.Question{question("Q1", survey.TextOpinion), question("Q2", survey.TextOpinion)},
		"start>Q1", "Q1>Q2", "Q2>end",
	)
	for _, s := range []validator.Strictness{validator.Full, validator.Quick} {
		r := validator.Validate(g, s)
		assert.Empty(t, r.Diagnostics, "%s: %v", s, r.Diagnostics)
		assert.False(t, r.HasErrors())
	}
}

func TestOrphanScenario(t *testing.T) {
	g := build(t,
		[]*survey.Question{question("Q1", survey.TextOpinion), question("Q2", survey.TextOpinion)},
		"start>Q1", "Q1>end",
	)
	r := validator.Validate(g, validator.Full)

	orphans := r.Of(validator.KindOrphan)
	require.Len(t, orphans, 1)
	assert.Equal(t, "Q2", orphans[0].NodeID)
	assert.Equal(t, validator.SeverityError, orphans[0].Severity)

	byNode := r.ByNode()
	for _, id := range []string{"Q1", "start", "end"} {
		assert.Empty(t, byNode[id], id)
	}

	quick := validator.Validate(g, validator.Quick).Of(validator.KindOrphan)
	require.Len(t, quick, 1)
	assert.Equal(t, validator.SeverityWarning, quick[0].Severity)
}

func TestCycleRejectedRegardlessOfOrder(t *testing.T) {
	orders := [][]string{{"Q1", "Q2", "Q3"}, {"Q3", "Q1", "Q2"}, {"Q2", "Q3", "Q1"}}
	for _, order := range orders {
		var qs []*survey.Question
		for _, id := range order {
			qs = append(qs, question(id, survey.TextOpinion))
		}
		g := build(t, qs, "start>Q1", "Q1>Q2", "Q2>Q3", "Q3>Q1")
		r := validator.Validate(g, validator.Full)
		cycles := r.Of(validator.KindCycle)
		assert.NotEmpty(t, cycles, "order %v", order)
		for _, c := range cycles {
			assert.Equal(t, validator.SeverityError, c.Severity)
		}
	}
}

func TestDeadEndOnlyInFull(t *testing.T) {
	// Q2 loops back to Q1 and nothing reaches end.
	g := build(t,
		[]*survey.Question{question("Q1", survey.TextOpinion), question("Q2", survey.TextOpinion)},
		"start>Q1", "Q1>Q2", "Q2>Q1",
	)
	full := validator.Validate(g, validator.Full)
	assert.Len(t, full.Of(validator.KindDeadEnd), 2)
	assert.Len(t, full.Of(validator.KindInvalidPath), 1)

	quick := validator.Validate(g, validator.Quick)
	assert.Empty(t, quick.Of(validator.KindDeadEnd))
	assert.Empty(t, quick.Of(validator.KindInvalidPath))
	assert.NotEmpty(t, quick.Of(validator.KindCycle))
}

func TestDanglingOptionPorts(t *testing.T) {
	qs := func() []*survey.Question {
		return []*survey.Question{
			question("Q1", survey.MultipleChoice, "yes", "no"),
			question("Q2", survey.TextOpinion),
		}
	}
	cases := []struct {
		name     string
		edges    []string
		dangling []string
	}{
		{"all options wired", []string{"start>Q1", "Q1>Q2@yes", "Q1>end@no", "Q2>end"}, nil},
		{"one option missing", []string{"start>Q1", "Q1>Q2@yes", "Q2>end"}, []string{`option "no" has no connection`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := build(t, qs(), tc.edges...)
			var got []string
			for _, d := range validator.Validate(g, validator.Full).Of(validator.KindDanglingPort) {
				assert.Equal(t, validator.SeverityError, d.Severity)
				got = append(got, d.Message)
			}
			assert.Equal(t, tc.dangling, got)
		})
	}
}

// Zero dangling-port errors iff every option value is a branch key whose
// target is in the graph.
func TestDanglingMatchesBranchMap(t *testing.T) {
	edgeSets := [][]string{
		{"start>Q1", "Q1>Q2@a", "Q1>Q2@b", "Q1>end@c", "Q2>end"},
		{"start>Q1", "Q1>Q2@a", "Q1>end@c", "Q2>end"},
		{"start>Q1", "Q1>Q2@a", "Q1>Q9@b", "Q1>end@c", "Q2>end"},
		{"start>Q1", "Q1>Q2@a", "Q1>Q2@b", "Q1>Q2@c", "Q1>Q2@z", "Q2>end"},
	}
	for _, edges := range edgeSets {
		g := build(t, []*survey.Question{
			question("Q1", survey.MultipleChoice, "a", "b", "c"),
			question("Q2", survey.TextOpinion),
		}, edges...)
		g.SyncRoute("Q1")
		q := g.Node("Q1").Question

		complete := true
		for _, o := range q.Options {
			target, ok := q.NextQuestion.Lookup(o.Value)
			if !ok || (!survey.IsEndTarget(target) && !g.HasNode(target)) {
				complete = false
			}
		}
		dangling := validator.Validate(g, validator.Full).Of(validator.KindDanglingPort)
		assert.Equal(t, complete, len(dangling) == 0, "edges %v", edges)
	}
}

func TestMissingConnectionAndAmbiguity(t *testing.T) {
	g := build(t,
		[]*survey.Question{question("Q1", survey.TextOpinion), question("Q2", survey.TextOpinion)},
		"start>Q1", "Q1>Q2", "Q1>end",
	)
	r := validator.Validate(g, validator.Full)
	assert.Len(t, r.Of(validator.KindMissingConnection), 1)
	assert.Equal(t, "Q2", r.Of(validator.KindMissingConnection)[0].NodeID)
	assert.Len(t, r.Of(validator.KindAmbiguousRoute), 1)
}

func TestOptionRoutingOnlyOnMultipleChoice(t *testing.T) {
	g := build(t,
		[]*survey.Question{question("Q1", survey.TextOpinion), question("Q2", survey.TextOpinion)},
		"start>Q1", "Q1>Q2@bogus", "Q2>end",
	)
	for _, s := range []validator.Strictness{validator.Full, validator.Quick} {
		r := validator.Validate(g, s)
		ambiguous := r.Of(validator.KindAmbiguousRoute)
		require.Len(t, ambiguous, 1, "strictness %s", s)
		assert.Equal(t, validator.SeverityError, ambiguous[0].Severity)
		assert.Equal(t, "Q1", ambiguous[0].NodeID)
		assert.Equal(t, "Q1-bogus-Q2", ambiguous[0].EdgeID)
		assert.Empty(t, r.Of(validator.KindMissingConnection))
	}

	branchMap := question("Q1", survey.TextOpinion)
	branchMap.NextQuestion = survey.ConditionalRoutes(map[string]string{"x": "Q2"})
	g = build(t, []*survey.Question{branchMap, question("Q2", survey.TextOpinion)},
		"start>Q1", "Q1>Q2", "Q2>end",
	)
	r := validator.Validate(g, validator.Full)
	require.Len(t, r.Of(validator.KindAmbiguousRoute), 1)
	assert.Contains(t, r.Of(validator.KindAmbiguousRoute)[0].Message, "branch map")
}

func TestInvalidEndpointsAndDuplicates(t *testing.T) {
	g := build(t,
		[]*survey.Question{question("Q1", survey.TextOpinion), question("Q1", survey.TextOpinion)},
		"start>Q1", "Q1>end", "end>Q1", "Q1>start", "Q1>Q404",
	)
	r := validator.Validate(g, validator.Full)
	assert.Len(t, r.Of(validator.KindDuplicateID), 1)
	assert.Len(t, r.Of(validator.KindInvalidEndpoint), 3)
	assert.True(t, r.HasErrors())
}

func TestMissingSentinels(t *testing.T) {
	g := graph.New()
	r := validator.Validate(g, validator.Full)
	assert.Equal(t, []validator.Kind{validator.KindMissingStart, validator.KindMissingEnd}, kinds(r.Diagnostics))
}

func TestStaleBranchAndContent(t *testing.T) {
	q1 := question("Q1", survey.MultipleChoice, "yes", "no")
	q1.NextQuestion = survey.ConditionalRoutes(map[string]string{"yes": "end", "no": "end", "maybe": "end"})
	g := build(t, []*survey.Question{q1, {QuestionID: "Q2", QuestionType: survey.TextOpinion}},
		"start>Q1", "Q1>Q2@yes", "Q1>Q2@no", "Q1>end@gone", "Q2>end",
	)
	r := validator.Validate(g, validator.Full)
	stale := r.Of(validator.KindStaleBranch)
	require.Len(t, stale, 2)
	for _, d := range stale {
		assert.Equal(t, validator.SeverityWarning, d.Severity)
	}
	invalid := r.Of(validator.KindInvalidQuestion)
	require.Len(t, invalid, 2, "Q2 lacks title and prompt")
	assert.Equal(t, "Q2", invalid[0].NodeID)
}

func TestReachabilityMonotonicity(t *testing.T) {
	qs := []*survey.Question{
		question("Q1", survey.TextOpinion),
		question("Q2", survey.TextOpinion),
		question("Q3", survey.TextOpinion),
	}
	g := build(t, qs, "start>Q1", "Q1>Q2", "Q2>end")
	orphansOf := func(g *graph.Graph) int {
		return len(validator.Validate(g, validator.Quick).Of(validator.KindOrphan))
	}
	base := orphansOf(g)

	added := g.Clone()
	_, _, err := added.Connect("Q2", "Q3", "", "")
	require.NoError(t, err)
	assert.LessOrEqual(t, orphansOf(added), base)

	removed := g.Clone()
	_, err = removed.Disconnect("Q1-Q2")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, orphansOf(removed), base)
}

func TestParseStrictness(t *testing.T) {
	s, err := validator.ParseStrictness("")
	require.NoError(t, err)
	assert.Equal(t, validator.Full, s)
	s, err = validator.ParseStrictness("Quick")
	require.NoError(t, err)
	assert.Equal(t, validator.Quick, s)
	_, err = validator.ParseStrictness("lax")
	assert.Error(t, err)
}
