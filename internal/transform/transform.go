// Package transform converts between the survey document and the editing
// graph. Malformed input is skipped and logged, never returned as an error.
package transform

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/logging"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// Layout places nodes on a staircase when a document carries no layout:
// start at the origin, question i one step right and down per index, end
// one step past the last question.
type Layout struct {
	OriginX float64 `yaml:"origin_x"`
	OriginY float64 `yaml:"origin_y"`
	StepX   float64 `yaml:"step_x"`
	StepY   float64 `yaml:"step_y"`
}

// DefaultLayout matches the builder canvas defaults.
func DefaultLayout() Layout {
	return Layout{OriginX: 100, OriginY: 100, StepX: 350, StepY: 150}
}

func (l Layout) start() survey.Position {
	return survey.Position{X: l.OriginX, Y: l.OriginY}
}

func (l Layout) question(i int) survey.Position {
	return survey.Position{X: l.OriginX + l.StepX*float64(i+1), Y: l.OriginY + l.StepY*float64(i+1)}
}

func (l Layout) end(n int) survey.Position {
	return survey.Position{X: l.OriginX + l.StepX*float64(n+1), Y: l.OriginY + l.StepY*float64(n+2)}
}

// Transformer carries the logger and staircase settings.
type Transformer struct {
	log    *slog.Logger
	layout Layout
}

type Option func(*Transformer)

func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.log = l
		}
	}
}

func WithLayout(l Layout) Option {
	return func(t *Transformer) { t.layout = l }
}

func New(opts ...Option) *Transformer {
	t := &Transformer{log: logging.NewNop(), layout: DefaultLayout()}
	for _, o := range opts {
		o(t)
	}
	return t
}

var std = New()

// DocumentToGraph converts with the default transformer.
func DocumentToGraph(doc *survey.Survey) *graph.Graph { return std.DocumentToGraph(doc) }

// GraphToDocument converts with the default transformer.
func GraphToDocument(g *graph.Graph, meta *survey.Survey) *survey.Survey {
	return std.GraphToDocument(g, meta)
}

// DocumentToGraph builds the editing graph. Every question becomes exactly one
// node. With a layout, positions and edges are restored from it; questions the
// layout does not mention get staircase positions and edges from nextQuestion.
// Without a layout, everything is synthesized.
func (t *Transformer) DocumentToGraph(doc *survey.Survey) *graph.Graph {
	if doc.Layout != nil && len(doc.Layout.Nodes) > 0 {
		return t.restore(doc)
	}
	return t.synthesize(doc)
}

func (t *Transformer) synthesize(doc *survey.Survey) *graph.Graph {
	g := graph.New()
	g.AddNode(graph.NewStartNode(t.layout.start()))
	g.AddNode(graph.NewEndNode(t.layout.end(len(doc.Questions))))
	for i := range doc.Questions {
		g.AddNode(graph.NewQuestionNode(&doc.Questions[i], t.layout.question(i)))
	}
	if len(doc.Questions) == 0 {
		t.connect(g, graph.StartID, graph.EndID, "")
		return g
	}
	t.connect(g, graph.StartID, doc.Questions[0].QuestionID, "")
	t.routeEdges(g, doc, nil)
	return g
}

func (t *Transformer) restore(doc *survey.Survey) *graph.Graph {
	positions := make(map[string]survey.Position, len(doc.Layout.Nodes))
	known := make(map[string]struct{}, len(doc.Questions))
	for _, q := range doc.Questions {
		known[q.QuestionID] = struct{}{}
	}
	for _, ln := range doc.Layout.Nodes {
		id := layoutID(ln.ID)
		if _, ok := positions[id]; ok {
			continue
		}
		_, isQuestion := known[id]
		if !isQuestion && id != graph.StartID && id != graph.EndID {
			t.log.Warn("layout node references unknown question, skipping", "node", ln.ID)
			continue
		}
		positions[id] = ln.Position
	}

	g := graph.New()
	g.AddNode(graph.NewStartNode(positionOr(positions, graph.StartID, t.layout.start())))
	g.AddNode(graph.NewEndNode(positionOr(positions, graph.EndID, t.layout.end(len(doc.Questions)))))

	var unplaced []string
	for i := range doc.Questions {
		q := &doc.Questions[i]
		pos, ok := positions[q.QuestionID]
		if !ok {
			pos = t.layout.question(i)
			unplaced = append(unplaced, q.QuestionID)
		}
		g.AddNode(graph.NewQuestionNode(q, pos))
	}

	for _, le := range doc.Layout.Edges {
		e := graph.EdgeFromLayout(le)
		e.Source, e.Target = layoutID(e.Source), layoutID(e.Target)
		if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
			t.log.Warn("layout edge references missing node, skipping", "edge", le.ID, "source", le.Source, "target", le.Target)
			continue
		}
		if err := checkEndpoints(g, e); err != nil {
			t.log.Warn("invalid layout edge, skipping", "edge", le.ID, "source", le.Source, "target", le.Target, "error", err)
			continue
		}
		if e.ID == "" {
			e.ID = graph.NewEdge(e.Source, e.Target, e.SourceHandle, e.TargetHandle).ID
		}
		g.AddEdge(e)
	}

	if len(unplaced) > 0 {
		t.log.Warn("questions missing from layout, synthesizing", "questions", unplaced)
		only := make(map[string]struct{}, len(unplaced))
		for _, id := range unplaced {
			only[id] = struct{}{}
		}
		t.routeEdges(g, doc, only)
	}
	return g
}

// routeEdges adds the edges implied by nextQuestion. A non-nil only restricts
// the source questions.
func (t *Transformer) routeEdges(g *graph.Graph, doc *survey.Survey, only map[string]struct{}) {
	for i := range doc.Questions {
		q := &doc.Questions[i]
		if only != nil {
			if _, ok := only[q.QuestionID]; !ok {
				continue
			}
		}
		switch q.NextQuestion.Kind() {
		case survey.RouteNone:
			t.connect(g, q.QuestionID, graph.EndID, "")
		case survey.RouteSingle:
			t.connect(g, q.QuestionID, t.target(g, q.QuestionID, q.NextQuestion.Target()), "")
		case survey.RouteConditional:
			for _, opt := range q.NextQuestion.BranchKeys() {
				target, _ := q.NextQuestion.Lookup(opt)
				t.connect(g, q.QuestionID, t.target(g, q.QuestionID, target), graph.OptionHandle(opt))
			}
		}
	}
}

func (t *Transformer) target(g *graph.Graph, from, id string) string {
	if survey.IsEndTarget(id) {
		return graph.EndID
	}
	if n := g.Node(id); n == nil || !n.IsQuestion() {
		t.log.Warn("nextQuestion references unknown question, skipping", "question", from, "target", id)
		return ""
	}
	return id
}

func (t *Transformer) connect(g *graph.Graph, source, target, handle string) {
	if target == "" {
		return
	}
	if _, _, err := g.Connect(source, target, handle, graph.HandleInput); err != nil {
		t.log.Warn("cannot synthesize edge, skipping", "source", source, "target", target, "error", err)
	}
}

// checkEndpoints applies the endpoint rules of graph.Connect to a restored edge.
func checkEndpoints(g *graph.Graph, e *graph.Edge) error {
	switch {
	case e.Source == e.Target:
		return fmt.Errorf("%s: %w", e.Source, graph.ErrSelfLoop)
	case g.Node(e.Source).Type == graph.NodeTypeEnd:
		return graph.ErrEdgeFromEnd
	case g.Node(e.Target).Type == graph.NodeTypeStart:
		return graph.ErrEdgeIntoStart
	}
	return nil
}

// GraphToDocument compiles the graph into a document. Questions are ordered
// top to bottom, then left to right, then by id. meta supplies everything but
// questions and layout; nil means defaults.
func (t *Transformer) GraphToDocument(g *graph.Graph, meta *survey.Survey) *survey.Survey {
	var doc *survey.Survey
	if meta != nil {
		doc = meta.Meta()
	} else {
		doc = survey.Defaults()
	}

	nodes := g.QuestionNodes()
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}
		return a.ID < b.ID
	})

	doc.Questions = make([]survey.Question, 0, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		q := n.Question.Clone()
		q.NextQuestion = g.RouteFor(n.ID)
		doc.Questions = append(doc.Questions, *q)
		ids = append(ids, q.QuestionID)
	}
	if len(doc.Sections) == 0 {
		doc.Sections = []survey.Section{{
			SectionID:   survey.DefaultSectionID,
			Title:       "Default",
			QuestionIDs: ids,
			Required:    true,
		}}
	}

	layout := &survey.Layout{
		Nodes: make([]survey.LayoutNode, 0, g.NodeCount()),
		Edges: make([]survey.LayoutEdge, 0, len(g.Edges())),
	}
	for _, n := range g.Nodes() {
		layout.Nodes = append(layout.Nodes, survey.LayoutNode{ID: n.ID, Type: string(n.Type), Position: n.Position})
	}
	for _, e := range g.Edges() {
		layout.Edges = append(layout.Edges, e.LayoutEdge())
	}
	doc.Layout = layout
	return doc
}

// layoutID accepts the "question-<id>" node ids older builder exports used.
func layoutID(id string) string {
	return strings.TrimPrefix(id, "question-")
}

func positionOr(m map[string]survey.Position, id string, def survey.Position) survey.Position {
	if p, ok := m[id]; ok {
		return p
	}
	return def
}
