package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EndSentinel marks a branch that terminates the survey.
const EndSentinel = "END"

// IsEndTarget reports whether a nextQuestion target means "survey end".
func IsEndTarget(target string) bool {
	return target == EndSentinel || strings.EqualFold(target, "end")
}

// RouteKind discriminates the three shapes of Question.NextQuestion.
type RouteKind int

const (
	// RouteNone has no defined successor (JSON null).
	RouteNone RouteKind = iota
	// RouteSingle always continues to one question (JSON string).
	RouteSingle
	// RouteConditional maps option values to targets (JSON object).
	RouteConditional
)

func (k RouteKind) String() string {
	switch k {
	case RouteSingle:
		return "single"
	case RouteConditional:
		return "conditional"
	default:
		return "none"
	}
}

// Route is the tagged form of a question's nextQuestion field.
// The zero value is NoRoute.
type Route struct {
	kind     RouteKind
	target   string
	branches map[string]string
}

// NoRoute returns an unwired route.
func NoRoute() Route { return Route{} }

// SinglePath returns an unconditional route to target.
func SinglePath(target string) Route {
	return Route{kind: RouteSingle, target: target}
}

// ConditionalRoutes returns a multi-branch route. The map is copied.
// A nil map still yields a conditional route with no branches.
func ConditionalRoutes(branches map[string]string) Route {
	m := make(map[string]string, len(branches))
	for k, v := range branches {
		m[k] = v
	}
	return Route{kind: RouteConditional, branches: m}
}

func (r Route) Kind() RouteKind { return r.kind }

// Target returns the single-path target ("" for other kinds).
func (r Route) Target() string {
	if r.kind != RouteSingle {
		return ""
	}
	return r.target
}

// Branches returns a copy of the option→target map (nil unless conditional).
func (r Route) Branches() map[string]string {
	if r.kind != RouteConditional {
		return nil
	}
	m := make(map[string]string, len(r.branches))
	for k, v := range r.branches {
		m[k] = v
	}
	return m
}

// Lookup returns the branch target for an option value.
func (r Route) Lookup(value string) (string, bool) {
	if r.kind != RouteConditional {
		return "", false
	}
	t, ok := r.branches[value]
	return t, ok
}

// BranchKeys returns the branch option values in sorted order.
func (r Route) BranchKeys() []string {
	keys := make([]string, 0, len(r.branches))
	for k := range r.branches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Prune drops branch entries whose option value is not in keep.
// It returns the pruned route and the removed option values.
func (r Route) Prune(keep map[string]struct{}) (Route, []string) {
	if r.kind != RouteConditional {
		return r, nil
	}
	var removed []string
	m := make(map[string]string, len(r.branches))
	for _, k := range r.BranchKeys() {
		if _, ok := keep[k]; !ok {
			removed = append(removed, k)
			continue
		}
		m[k] = r.branches[k]
	}
	return Route{kind: RouteConditional, branches: m}, removed
}

// Equal compares two routes structurally.
func (r Route) Equal(o Route) bool {
	if r.kind != o.kind {
		return false
	}
	switch r.kind {
	case RouteSingle:
		return r.target == o.target
	case RouteConditional:
		if len(r.branches) != len(o.branches) {
			return false
		}
		for k, v := range r.branches {
			if o.branches[k] != v {
				return false
			}
		}
	}
	return true
}

func (r Route) String() string {
	switch r.kind {
	case RouteSingle:
		return r.target
	case RouteConditional:
		parts := make([]string, 0, len(r.branches))
		for _, k := range r.BranchKeys() {
			parts = append(parts, k+"→"+r.branches[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<none>"
	}
}

// MarshalJSON encodes the route as null, a string, or an object.
func (r Route) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RouteSingle:
		return json.Marshal(r.target)
	case RouteConditional:
		if r.branches == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(r.branches)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string, or a string→string object.
func (r *Route) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = NoRoute()
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("nextQuestion: %w", err)
		}
		if s == "" {
			*r = NoRoute()
			return nil
		}
		*r = SinglePath(s)
		return nil
	case data[0] == '{':
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("nextQuestion: %w", err)
		}
		*r = ConditionalRoutes(m)
		return nil
	default:
		return fmt.Errorf("nextQuestion: expected null, string or object, got %s", string(data))
	}
}

// MarshalYAML mirrors MarshalJSON.
func (r Route) MarshalYAML() (interface{}, error) {
	switch r.kind {
	case RouteSingle:
		return r.target, nil
	case RouteConditional:
		return r.Branches(), nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (r *Route) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*r = NoRoute()
			return nil
		}
		*r = SinglePath(node.Value)
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("nextQuestion: %w", err)
		}
		*r = ConditionalRoutes(m)
		return nil
	default:
		return fmt.Errorf("nextQuestion: line %d: expected null, scalar or mapping", node.Line)
	}
}
