package validator

import (
	"fmt"
	"strings"
)

// Severity decides whether a diagnostic blocks export.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind names the structural problem.
type Kind string

const (
	KindOrphan            Kind = "orphan"
	KindDeadEnd           Kind = "dead_end"
	KindCycle             Kind = "cycle"
	KindDanglingPort      Kind = "dangling_port"
	KindMissingConnection Kind = "missing_connection"
	KindAmbiguousRoute    Kind = "ambiguous_route"
	KindDuplicateID       Kind = "duplicate_id"
	KindInvalidEndpoint   Kind = "invalid_endpoint"
	KindMissingStart      Kind = "missing_start"
	KindMissingEnd        Kind = "missing_end"
	KindInvalidPath       Kind = "invalid_path"
	KindInvalidQuestion   Kind = "invalid_question"
	KindStaleBranch       Kind = "stale_branch"
)

// Diagnostic is one finding, optionally attached to a node or an edge.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	NodeID   string   `json:"nodeId,omitempty"`
	EdgeID   string   `json:"edgeId,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", d.Severity, d.Kind)
	if d.NodeID != "" {
		fmt.Fprintf(&b, " node=%s", d.NodeID)
	}
	if d.EdgeID != "" {
		fmt.Fprintf(&b, " edge=%s", d.EdgeID)
	}
	return b.String() + ": " + d.Message
}

// Report is the ordered result of one validator run.
type Report struct {
	Strictness  Strictness   `json:"strictness"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func (r Report) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

func (r Report) Errors() []Diagnostic   { return r.filter(SeverityError) }
func (r Report) Warnings() []Diagnostic { return r.filter(SeverityWarning) }

// HasErrors reports whether any diagnostic blocks export.
func (r Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByNode groups node-attached diagnostics for editor highlighting.
func (r Report) ByNode() map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, d := range r.Diagnostics {
		if d.NodeID != "" {
			out[d.NodeID] = append(out[d.NodeID], d)
		}
	}
	return out
}

// Of returns the diagnostics of one kind.
func (r Report) Of(k Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}
