package graph

import (
	"strings"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// NodeType discriminates the three kinds of graph nodes.
type NodeType string

const (
	NodeTypeStart    NodeType = "start"
	NodeTypeEnd      NodeType = "end"
	NodeTypeQuestion NodeType = "question"
)

// Sentinel node ids.
const (
	StartID = "start"
	EndID   = "end"
)

// Port handles.
const (
	HandleDefault = "output-default"
	HandleInput   = "input"
	handlePrefix  = "output-"
)

// OptionHandle returns the output port for an option value.
func OptionHandle(value string) string { return handlePrefix + value }

// HandleOption extracts the option value from an output handle.
// The default port and foreign handles report false.
func HandleOption(handle string) (string, bool) {
	if handle == "" || handle == HandleDefault || handle == "output" {
		return "", false
	}
	if !strings.HasPrefix(handle, handlePrefix) {
		return "", false
	}
	v := strings.TrimPrefix(handle, handlePrefix)
	if v == "" || v == "default" {
		return "", false
	}
	return v, true
}

// Node is a start, end or question node. Question nodes carry the full
// question payload and use its questionId as node id.
type Node struct {
	ID       string           `json:"id"`
	Type     NodeType         `json:"type"`
	Position survey.Position  `json:"position"`
	Question *survey.Question `json:"question,omitempty"`
}

func NewStartNode(pos survey.Position) *Node {
	return &Node{ID: StartID, Type: NodeTypeStart, Position: pos}
}

func NewEndNode(pos survey.Position) *Node {
	return &Node{ID: EndID, Type: NodeTypeEnd, Position: pos}
}

// NewQuestionNode wraps a copy of q.
func NewQuestionNode(q *survey.Question, pos survey.Position) *Node {
	return &Node{ID: q.QuestionID, Type: NodeTypeQuestion, Position: pos, Question: q.Clone()}
}

func (n *Node) IsQuestion() bool { return n.Type == NodeTypeQuestion && n.Question != nil }

func (n *Node) clone() *Node {
	c := *n
	c.Question = n.Question.Clone()
	return &c
}

// Edge connects an output port of Source to the input port of Target.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	// Condition holds the option value for option branches, or a runtime
	// expression such as "value == 'yes'" carried through the layout.
	Condition string `json:"condition,omitempty"`
}

// NewEdge builds an edge with default handles and a deterministic id.
func NewEdge(source, target, sourceHandle, targetHandle string) *Edge {
	if sourceHandle == "" {
		sourceHandle = HandleDefault
	}
	if targetHandle == "" {
		targetHandle = HandleInput
	}
	e := &Edge{Source: source, Target: target, SourceHandle: sourceHandle, TargetHandle: targetHandle}
	if opt, ok := HandleOption(sourceHandle); ok {
		e.Condition = opt
		e.ID = source + "-" + opt + "-" + target
	} else {
		e.ID = source + "-" + target
	}
	return e
}

// Option returns the option value this edge branches on, taken from the
// source handle or from a plain (single token) condition.
func (e *Edge) Option() (string, bool) {
	if v, ok := HandleOption(e.SourceHandle); ok {
		return v, true
	}
	c := strings.TrimSpace(e.Condition)
	if c == "" || strings.ContainsAny(c, " \t") {
		return "", false
	}
	return c, true
}

// LayoutEdge converts the edge to its persisted form.
func (e *Edge) LayoutEdge() survey.LayoutEdge {
	le := survey.LayoutEdge{
		ID:           e.ID,
		Source:       e.Source,
		Target:       e.Target,
		SourceHandle: e.SourceHandle,
		TargetHandle: e.TargetHandle,
	}
	if e.Condition != "" {
		le.Data = &survey.EdgeData{Condition: e.Condition}
	}
	return le
}

// EdgeFromLayout restores an edge verbatim from its persisted form.
func EdgeFromLayout(le survey.LayoutEdge) *Edge {
	return &Edge{
		ID:           le.ID,
		Source:       le.Source,
		Target:       le.Target,
		SourceHandle: le.SourceHandle,
		TargetHandle: le.TargetHandle,
		Condition:    le.Condition(),
	}
}
