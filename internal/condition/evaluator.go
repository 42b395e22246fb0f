package condition

import (
	"fmt"
	"strings"
)

// Scope resolves the subject of a comparison to an answer value.
type Scope interface {
	Resolve(subject string) (interface{}, bool)
}

// Answers is a Scope over a respondent's answers. The subjects "answer" and
// "value", and any name that is not an answered question, mean the answer to
// Current.
type Answers struct {
	Current string
	Values  map[string]interface{}
}

func (a Answers) Resolve(subject string) (interface{}, bool) {
	switch strings.ToLower(subject) {
	case "answer", "value":
		v, ok := a.Values[a.Current]
		return v, ok
	}
	if v, ok := a.Values[subject]; ok {
		return v, true
	}
	v, ok := a.Values[a.Current]
	return v, ok
}

// Evaluate walks the expression. A missing subject is an error.
func Evaluate(e Expr, scope Scope) (bool, error) {
	switch x := e.(type) {
	case *Logical:
		left, err := Evaluate(x.Left, scope)
		if err != nil {
			return false, err
		}
		if x.Op == "AND" && !left {
			return false, nil
		}
		if x.Op == "OR" && left {
			return true, nil
		}
		return Evaluate(x.Right, scope)
	case *Not:
		v, err := Evaluate(x.Expr, scope)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *Comparison:
		subject, ok := scope.Resolve(x.Subject)
		if !ok {
			return false, fmt.Errorf("no answer for %q", x.Subject)
		}
		return compare(x.Op, subject, x.Value)
	}
	return false, fmt.Errorf("unknown expression %T", e)
}

// Match parses and evaluates src. Any parse or evaluation failure is false.
func Match(src string, scope Scope) bool {
	e, err := Parse(src)
	if err != nil {
		return false
	}
	ok, err := Evaluate(e, scope)
	return err == nil && ok
}
