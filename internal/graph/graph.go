// Package graph is the editing-time view of a survey: start, end and question
// nodes connected by edges between ports. It is the form a canvas edits and the
// form the validator analyses; the survey document is derived from it.
package graph

import (
	"encoding/json"
	"errors"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrProtectedNode = errors.New("start and end nodes cannot be removed")
	ErrSelfLoop      = errors.New("edge cannot connect a node to itself")
	ErrEdgeFromEnd   = errors.New("end node has no output port")
	ErrEdgeIntoStart = errors.New("start node has no input port")
	ErrDuplicateNode = errors.New("node id already exists")
)

// Graph holds nodes in insertion order and the edges between them.
// Duplicate node ids are kept so the validator can report them; lookups
// resolve to the first node with a given id.
type Graph struct {
	nodes []*Node
	index map[string]*Node
	edges []*Edge
}

// New allocates an empty Graph.
func New() *Graph {
	return &Graph{index: make(map[string]*Node)}
}

// AddNode appends a node. It does not reject duplicate ids; use InsertQuestion
// for checked insertion.
func (g *Graph) AddNode(n *Node) {
	g.nodes = append(g.nodes, n)
	if _, ok := g.index[n.ID]; !ok {
		g.index[n.ID] = n
	}
}

// AddEdge appends an edge as is.
func (g *Graph) AddEdge(e *Edge) {
	g.edges = append(g.edges, e)
}

// Node returns a node by ID (nil if not found).
func (g *Graph) Node(id string) *Node {
	return g.index[id]
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Nodes returns all nodes in insertion order. The slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns all edges in insertion order. The slice must not be modified.
func (g *Graph) Edges() []*Edge { return g.edges }

// QuestionNodes returns the question nodes in insertion order.
func (g *Graph) QuestionNodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n.IsQuestion() {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Edge returns an edge by ID.
func (g *Graph) Edge(id string) *Edge {
	for _, e := range g.edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Outgoing returns the edges leaving id, in insertion order.
func (g *Graph) Outgoing(id string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id, in insertion order.
func (g *Graph) Incoming(id string) []*Edge {
	var in []*Edge
	for _, e := range g.edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// Successors returns the distinct direct successors of a node.
func (g *Graph) Successors(id string) []string {
	return distinct(g.Outgoing(id), func(e *Edge) string { return e.Target })
}

// Predecessors returns the distinct direct predecessors of a node.
func (g *Graph) Predecessors(id string) []string {
	return distinct(g.Incoming(id), func(e *Edge) string { return e.Source })
}

func distinct(edges []*Edge, key func(*Edge) string) []string {
	seen := make(map[string]struct{}, len(edges))
	var out []string
	for _, e := range edges {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Clone returns a deep copy. Mutations are applied to a clone and committed
// only when they succeed.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make([]*Node, 0, len(g.nodes)),
		index: make(map[string]*Node, len(g.index)),
		edges: make([]*Edge, 0, len(g.edges)),
	}
	for _, n := range g.nodes {
		c.AddNode(n.clone())
	}
	for _, e := range g.edges {
		ec := *e
		c.edges = append(c.edges, &ec)
	}
	return c
}

type graphJSON struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// MarshalJSON renders the graph the way a canvas consumes it.
func (g *Graph) MarshalJSON() ([]byte, error) {
	view := graphJSON{Nodes: g.nodes, Edges: g.edges}
	if view.Nodes == nil {
		view.Nodes = []*Node{}
	}
	if view.Edges == nil {
		view.Edges = []*Edge{}
	}
	return json.Marshal(view)
}

// UnmarshalJSON accepts the same shape MarshalJSON produces.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var view graphJSON
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}
	*g = *New()
	for _, n := range view.Nodes {
		if n.Type == NodeTypeQuestion && n.Question != nil && n.ID == "" {
			n.ID = n.Question.QuestionID
		}
		g.AddNode(n)
	}
	g.edges = append(g.edges, view.Edges...)
	return nil
}
