package condition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operator represents a comparison operator.
type Operator string

const (
	OpEq       Operator = "=="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "contains"
)

// toFloat64 coerces numbers and numeric strings.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Text renders an answer the way branch keys are written: slices are joined
// with commas and whole numbers lose their decimal point.
func Text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []string:
		return strings.Join(x, ",")
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Text(e)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("%v", v)
}

func compare(op Operator, subject, value interface{}) (bool, error) {
	switch op {
	case OpEq:
		return equal(subject, value), nil
	case OpNeq:
		return !equal(subject, value), nil
	case OpGt, OpGte, OpLt, OpLte:
		return ordered(op, subject, value)
	case OpContains:
		return contains(subject, value), nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

func equal(subject, value interface{}) bool {
	if vb, ok := value.(bool); ok {
		sb, ok := subject.(bool)
		if !ok {
			return strings.EqualFold(Text(subject), strconv.FormatBool(vb))
		}
		return sb == vb
	}
	if vf, ok := value.(float64); ok {
		if sf, ok := toFloat64(subject); ok {
			return math.Abs(sf-vf) < 1e-9
		}
	}
	return Text(subject) == Text(value)
}

func ordered(op Operator, subject, value interface{}) (bool, error) {
	sf, sok := toFloat64(subject)
	vf, vok := toFloat64(value)
	if !sok || !vok {
		return false, fmt.Errorf("operator %s needs numbers, got %q and %q", op, Text(subject), Text(value))
	}
	switch op {
	case OpGt:
		return sf > vf, nil
	case OpGte:
		return sf >= vf, nil
	case OpLt:
		return sf < vf, nil
	default:
		return sf <= vf, nil
	}
}

// contains tests membership for multi-select answers and substring otherwise.
func contains(subject, value interface{}) bool {
	want := Text(value)
	switch s := subject.(type) {
	case []string:
		for _, e := range s {
			if e == want {
				return true
			}
		}
		return false
	case []interface{}:
		for _, e := range s {
			if Text(e) == want {
				return true
			}
		}
		return false
	}
	return strings.Contains(Text(subject), want)
}
