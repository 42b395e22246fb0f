package graph

import (
	"fmt"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// Connect adds an edge from source to target. Empty handles default to
// output-default and input. When an edge with the same source, target and
// source handle already exists it is returned with added=false.
func (g *Graph) Connect(source, target, sourceHandle, targetHandle string) (*Edge, bool, error) {
	src, dst := g.Node(source), g.Node(target)
	switch {
	case src == nil:
		return nil, false, fmt.Errorf("source %q: %w", source, ErrNodeNotFound)
	case dst == nil:
		return nil, false, fmt.Errorf("target %q: %w", target, ErrNodeNotFound)
	case source == target:
		return nil, false, fmt.Errorf("%s: %w", source, ErrSelfLoop)
	case src.Type == NodeTypeEnd:
		return nil, false, ErrEdgeFromEnd
	case dst.Type == NodeTypeStart:
		return nil, false, ErrEdgeIntoStart
	}
	e := NewEdge(source, target, sourceHandle, targetHandle)
	for _, existing := range g.edges {
		if existing.Source == e.Source && existing.Target == e.Target && existing.SourceHandle == e.SourceHandle {
			return existing, false, nil
		}
	}
	g.edges = append(g.edges, e)
	return e, true, nil
}

// Disconnect removes an edge by id.
func (g *Graph) Disconnect(edgeID string) (*Edge, error) {
	for i, e := range g.edges {
		if e.ID == edgeID {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return e, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", edgeID, ErrEdgeNotFound)
}

// RemoveNode deletes every node with the given id together with its incident
// edges, which are returned.
func (g *Graph) RemoveNode(id string) ([]*Edge, error) {
	n := g.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	if n.Type != NodeTypeQuestion {
		return nil, ErrProtectedNode
	}
	kept := g.nodes[:0]
	for _, node := range g.nodes {
		if node.ID != id {
			kept = append(kept, node)
		}
	}
	g.nodes = kept
	delete(g.index, id)

	var removed []*Edge
	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.Source == id || e.Target == id {
			removed = append(removed, e)
			continue
		}
		edges = append(edges, e)
	}
	g.edges = edges
	return removed, nil
}

// InsertQuestion adds a question node. The id must be new and must not collide
// with the sentinels.
func (g *Graph) InsertQuestion(q *survey.Question, pos survey.Position) (*Node, error) {
	if q.QuestionID == "" || q.QuestionID == StartID || q.QuestionID == EndID || g.HasNode(q.QuestionID) {
		return nil, fmt.Errorf("%q: %w", q.QuestionID, ErrDuplicateNode)
	}
	n := NewQuestionNode(q, pos)
	g.AddNode(n)
	return n, nil
}

// ReplaceQuestion swaps the payload of a question node.
func (g *Graph) ReplaceQuestion(id string, q *survey.Question) error {
	n := g.Node(id)
	if n == nil || !n.IsQuestion() {
		return fmt.Errorf("question %s: %w", id, ErrNodeNotFound)
	}
	n.Question = q.Clone()
	return nil
}

// Move sets a node's position.
func (g *Graph) Move(id string, pos survey.Position) error {
	n := g.Node(id)
	if n == nil {
		return fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	n.Position = pos
	return nil
}

// PruneOptionEdges removes edges leaving id through an option port whose value
// is not in keep.
func (g *Graph) PruneOptionEdges(id string, keep map[string]struct{}) []*Edge {
	var removed []*Edge
	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.Source == id {
			if opt, ok := HandleOption(e.SourceHandle); ok {
				if _, live := keep[opt]; !live {
					removed = append(removed, e)
					continue
				}
			}
		}
		edges = append(edges, e)
	}
	g.edges = edges
	return removed
}

// InsertBetween splits an edge: the source keeps its handle and now points to
// q, and q continues to the old target through its default port.
func (g *Graph) InsertBetween(edgeID string, q *survey.Question, pos survey.Position) (*Node, error) {
	old := g.Edge(edgeID)
	if old == nil {
		return nil, fmt.Errorf("%s: %w", edgeID, ErrEdgeNotFound)
	}
	n, err := g.InsertQuestion(q, pos)
	if err != nil {
		return nil, err
	}
	if _, err := g.Disconnect(edgeID); err != nil {
		return nil, err
	}
	if _, _, err := g.Connect(old.Source, n.ID, old.SourceHandle, HandleInput); err != nil {
		return nil, err
	}
	if _, _, err := g.Connect(n.ID, old.Target, HandleDefault, old.TargetHandle); err != nil {
		return nil, err
	}
	return n, nil
}
