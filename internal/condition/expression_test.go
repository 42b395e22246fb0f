package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scope(current string, kv ...interface{}) Answers {
	a := Answers{Current: current, Values: make(map[string]interface{})}
	for i := 0; i < len(kv)-1; i += 2 {
		a.Values[kv[i].(string)] = kv[i+1]
	}
	return a
}

type evalCase struct {
	name    string
	expr    string
	scope   Scope
	want    bool
	wantErr bool
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		{name: "quoted equality", expr: "value == 'yes'", scope: scope("Q1", "Q1", "yes"), want: true},
		{name: "bare word literal", expr: "answer == yes", scope: scope("Q1", "Q1", "yes"), want: true},
		{name: "single equals", expr: "value = no", scope: scope("Q1", "Q1", "yes"), want: false},
		{name: "not equal", expr: "value != no", scope: scope("Q1", "Q1", "yes"), want: true},
		{name: "other question", expr: "Q1 == yes", scope: scope("Q2", "Q1", "yes", "Q2", "x"), want: true},
		{name: "unknown name means current", expr: "choice == 3", scope: scope("Q2", "Q2", "3"), want: true},
		{name: "numeric string gt", expr: "value > 2", scope: scope("Q1", "Q1", "5"), want: true},
		{name: "numeric lte", expr: "value <= 2", scope: scope("Q1", "Q1", float64(2)), want: true},
		{name: "negative literal", expr: "value >= -1", scope: scope("Q1", "Q1", float64(0)), want: true},
		{name: "non numeric order", expr: "value > 2", scope: scope("Q1", "Q1", "many"), wantErr: true},
		{name: "contains substring", expr: "value contains 'late'", scope: scope("Q1", "Q1", "chocolate"), want: true},
		{name: "contains membership", expr: "value contains b", scope: scope("Q1", "Q1", []string{"a", "b"}), want: true},
		{name: "slice equality joins", expr: "value == 'a,b'", scope: scope("Q1", "Q1", []interface{}{"a", "b"}), want: true},
		{name: "bool", expr: "value == true", scope: scope("Q1", "Q1", true), want: true},
		{name: "and short circuit", expr: "value == no AND missing > 3", scope: scope("Q1", "Q1", "yes"), want: false},
		{name: "or", expr: "value == no OR value == yes", scope: scope("Q1", "Q1", "yes"), want: true},
		{name: "symbol aliases", expr: "!(value == no) && value == yes", scope: scope("Q1", "Q1", "yes"), want: true},
		{name: "not", expr: "NOT value == yes", scope: scope("Q1", "Q1", "yes"), want: false},
		{name: "precedence", expr: "value == a OR value == b AND value == c", scope: scope("Q1", "Q1", "a"), want: true},
		{name: "no answer", expr: "value == yes", scope: scope("Q1"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Parse(tc.expr)
			require.NoError(t, err)
			got, err := Evaluate(e, tc.scope)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"yes",
		"value ==",
		"== yes",
		"value == 'open",
		"(value == yes",
		"value == yes extra",
		"value & yes",
		"value ~ yes",
	} {
		_, err := Parse(src)
		assert.Error(t, err, src)
	}
}

func TestMatchNeverPanics(t *testing.T) {
	s := scope("Q1", "Q1", "yes")
	assert.True(t, Match("value == 'yes'", s))
	assert.False(t, Match("value ==", s))
	assert.False(t, Match("value > 3", s))
	assert.False(t, Match("))", s))
}

func TestText(t *testing.T) {
	assert.Equal(t, "3", Text(float64(3)))
	assert.Equal(t, "2.5", Text(2.5))
	assert.Equal(t, "a,b", Text([]string{"a", "b"}))
	assert.Equal(t, "a,1", Text([]interface{}{"a", float64(1)}))
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "true", Text(true))
}
