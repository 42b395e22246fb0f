package editor

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

var (
	// ErrImmutableID is returned when an update tries to change a questionId.
	ErrImmutableID     = survey.ErrImmutableID
	// ErrDuplicateOption is returned when an update lists an option value twice.
	ErrDuplicateOption = survey.ErrDuplicateOption

	ErrSectionNotFound  = errors.New("section not found")
	ErrDuplicateSection = errors.New("duplicate section id")
)

// draft is the working copy a mutation edits. It replaces the session state
// only when the mutation succeeds.
type draft struct {
	g       *graph.Graph
	meta    *survey.Survey
	counter int
	// structural is set by mutations that change nodes or edges.
	structural bool
}

// mutate runs fn on a copy of the session state and commits it on success.
// Structural mutations are followed by a validator run.
func (s *Session) mutate(op string, fn func(d *draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &draft{g: s.g.Clone(), meta: s.meta.Clone(), counter: s.counter}
	if err := fn(d); err != nil {
		metrics.GraphMutations.WithLabelValues(op, "rejected").Inc()
		s.log.Debug("mutation rejected", "op", op, "error", err)
		return err
	}
	s.g, s.meta, s.counter = d.g, d.meta, d.counter
	s.dirty = true
	metrics.GraphMutations.WithLabelValues(op, "ok").Inc()
	if d.structural {
		s.revalidate()
		s.log.Debug("mutation applied", "op", op,
			"errors", len(s.report.Errors()), "warnings", len(s.report.Warnings()))
	}
	return nil
}

// nextID allocates the next free Q<n> id.
func (d *draft) nextID() string {
	for {
		d.counter++
		id := survey.QuestionIDFor(d.counter)
		if !d.g.HasNode(id) {
			return id
		}
	}
}

// newQuestion builds a question from the palette template and files it under
// the first section, creating one if the survey has none.
func (s *Session) newQuestion(d *draft, qt survey.QuestionType) (*survey.Question, error) {
	tpl, err := s.palette.Get(qt)
	if err != nil {
		return nil, err
	}
	q := tpl.New(d.nextID())
	if len(d.meta.Sections) == 0 {
		d.meta.Sections = []survey.Section{{SectionID: "SEC1", Title: "Section 1", QuestionIDs: []string{}, Required: true}}
	}
	sec := &d.meta.Sections[0]
	q.SectionID = sec.SectionID
	sec.QuestionIDs = append(sec.QuestionIDs, q.QuestionID)
	return &q, nil
}

// AddQuestionNode drops a palette item onto the canvas and returns the new
// question id. The question starts unwired.
func (s *Session) AddQuestionNode(qt survey.QuestionType, pos survey.Position) (string, error) {
	var id string
	err := s.mutate("add_question", func(d *draft) error {
		q, err := s.newQuestion(d, qt)
		if err != nil {
			return err
		}
		if _, err := d.g.InsertQuestion(q, pos); err != nil {
			return err
		}
		id = q.QuestionID
		d.structural = true
		return nil
	})
	return id, err
}

// InsertBetween splits an edge with a new question placed halfway between the
// edge's endpoints. The source keeps its port.
func (s *Session) InsertBetween(edgeID string, qt survey.QuestionType) (string, error) {
	var id string
	err := s.mutate("insert_between", func(d *draft) error {
		e := d.g.Edge(edgeID)
		if e == nil {
			return fmt.Errorf("%s: %w", edgeID, graph.ErrEdgeNotFound)
		}
		q, err := s.newQuestion(d, qt)
		if err != nil {
			return err
		}
		if _, err := d.g.InsertBetween(edgeID, q, midpoint(d.g, e)); err != nil {
			return err
		}
		syncRoute(d.g, e.Source)
		syncRoute(d.g, q.QuestionID)
		id = q.QuestionID
		d.structural = true
		return nil
	})
	return id, err
}

func midpoint(g *graph.Graph, e *graph.Edge) survey.Position {
	var src, dst survey.Position
	if n := g.Node(e.Source); n != nil {
		src = n.Position
	}
	if n := g.Node(e.Target); n != nil {
		dst = n.Position
	}
	return survey.Position{X: (src.X + dst.X) / 2, Y: (src.Y + dst.Y) / 2}
}

// UpdateQuestion is the single entry point for property edits. A changed
// questionId is rejected with ErrImmutableID. Option edges and branch entries
// for removed option values are pruned. A patch carrying nextQuestion rewires
// the question's outgoing edges to match it; otherwise nextQuestion keeps
// following the edges.
func (s *Session) UpdateQuestion(id string, patch survey.QuestionPatch) error {
	return s.mutate("update_question", func(d *draft) error {
		n := d.g.Node(id)
		if n == nil || !n.IsQuestion() {
			return fmt.Errorf("question %s: %w", id, graph.ErrNodeNotFound)
		}
		updated, pruned, err := patch.Apply(n.Question)
		if err != nil {
			return fmt.Errorf("question %s: %w", id, err)
		}
		previousSection := n.Question.SectionID
		if err := d.g.ReplaceQuestion(id, updated); err != nil {
			return err
		}
		if updated.SectionID != previousSection {
			if err := moveToSection(d.meta, id, updated.SectionID); err != nil {
				return err
			}
		}
		removed := d.g.PruneOptionEdges(id, updated.OptionValues())
		if len(pruned) > 0 || len(removed) > 0 {
			s.log.Debug("pruned stale branches", "question", id, "options", pruned, "edges", len(removed))
		}
		if patch.NextQuestion != nil {
			if err := rewire(d.g, id, updated.NextQuestion); err != nil {
				return err
			}
		} else {
			syncRoute(d.g, id)
		}
		d.structural = true
		return nil
	})
}

// rewire replaces the outgoing edges of id with the ones route describes.
func rewire(g *graph.Graph, id string, route survey.Route) error {
	for _, e := range g.Outgoing(id) {
		if _, err := g.Disconnect(e.ID); err != nil {
			return err
		}
	}
	switch route.Kind() {
	case survey.RouteSingle:
		if _, _, err := g.Connect(id, endpoint(route.Target()), graph.HandleDefault, graph.HandleInput); err != nil {
			return err
		}
	case survey.RouteConditional:
		branches := route.Branches()
		for _, opt := range route.BranchKeys() {
			if _, _, err := g.Connect(id, endpoint(branches[opt]), graph.OptionHandle(opt), graph.HandleInput); err != nil {
				return err
			}
		}
	}
	g.SyncRoute(id)
	// an empty branch map still marks the question as branching
	if q := g.Node(id).Question; route.Kind() == survey.RouteConditional && !survey.IsBranching(q) {
		q.NextQuestion = survey.ConditionalRoutes(nil)
	}
	return nil
}

func endpoint(target string) string {
	if survey.IsEndTarget(target) {
		return graph.EndID
	}
	return target
}

// syncRoute re-derives nextQuestion from the edges. A branching question that
// loses its last edge stays in branch mode with an empty map.
func syncRoute(g *graph.Graph, id string) {
	n := g.Node(id)
	if n == nil || !n.IsQuestion() {
		return
	}
	wasBranching := survey.IsBranching(n.Question)
	g.SyncRoute(id)
	if wasBranching && survey.IsUnwired(n.Question) {
		n.Question.NextQuestion = survey.ConditionalRoutes(nil)
	}
}

// DeleteNode removes a question, every edge touching it and its id from every
// section. start and end cannot be deleted.
func (s *Session) DeleteNode(id string) error {
	return s.mutate("delete_node", func(d *draft) error {
		preds := d.g.Predecessors(id)
		if _, err := d.g.RemoveNode(id); err != nil {
			return err
		}
		for i := range d.meta.Sections {
			d.meta.Sections[i].QuestionIDs = without(d.meta.Sections[i].QuestionIDs, id)
		}
		for _, p := range preds {
			syncRoute(d.g, p)
		}
		d.structural = true
		return nil
	})
}

// AddEdge connects two nodes. condition is an optional label carried on the
// edge; an option port sets it to the option value. Adding an edge that
// already exists is a no-op and returns the existing one.
func (s *Session) AddEdge(source, target, sourceHandle, targetHandle, condition string) (*graph.Edge, error) {
	var out *graph.Edge
	err := s.mutate("add_edge", func(d *draft) error {
		e, added, err := d.g.Connect(source, target, sourceHandle, targetHandle)
		if err != nil {
			return err
		}
		if added && condition != "" {
			e.Condition = condition
		}
		syncRoute(d.g, source)
		out = cloneEdge(e)
		d.structural = added
		return nil
	})
	return out, err
}

// DeleteEdge removes one edge.
func (s *Session) DeleteEdge(edgeID string) error {
	return s.mutate("delete_edge", func(d *draft) error {
		e, err := d.g.Disconnect(edgeID)
		if err != nil {
			return err
		}
		syncRoute(d.g, e.Source)
		d.structural = true
		return nil
	})
}

// MoveNode sets a node's canvas position. Position only affects the question
// order of the exported document.
func (s *Session) MoveNode(id string, pos survey.Position) error {
	return s.mutate("move_node", func(d *draft) error {
		return d.g.Move(id, pos)
	})
}

func cloneEdge(e *graph.Edge) *graph.Edge {
	c := *e
	return &c
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
