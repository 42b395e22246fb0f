package graph

import "github.com/gyaneshwarpardhi/surveyflow/internal/survey"

// RouteFor derives the nextQuestion of a node from its outgoing edges.
//
//   - no live edge: NoRoute
//   - one edge without an option: SinglePath, or NoRoute when it targets end
//   - otherwise: a map from option value to target, END for the end node
//
// Edges whose target is missing are ignored. When several edges share an option
// the first one wins. If no edge carries an option the first edge is used as a
// single path. Only multiple choice questions branch: option handles on any
// other source are read as plain connections.
func (g *Graph) RouteFor(id string) survey.Route {
	option := func(e *Edge) (string, bool) { return "", false }
	if n := g.Node(id); n != nil && n.IsQuestion() && n.Question.QuestionType == survey.MultipleChoice {
		option = (*Edge).Option
	}
	var live []*Edge
	for _, e := range g.Outgoing(id) {
		if g.HasNode(e.Target) {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return survey.NoRoute()
	}
	if len(live) == 1 {
		if _, ok := option(live[0]); !ok {
			return g.singleRoute(live[0])
		}
	}
	branches := make(map[string]string, len(live))
	var fallback *Edge
	for _, e := range live {
		opt, ok := option(e)
		if !ok {
			if fallback == nil {
				fallback = e
			}
			continue
		}
		if _, dup := branches[opt]; dup {
			continue
		}
		if g.Node(e.Target).Type == NodeTypeEnd {
			branches[opt] = survey.EndSentinel
		} else {
			branches[opt] = e.Target
		}
	}
	if len(branches) == 0 {
		return g.singleRoute(fallback)
	}
	return survey.ConditionalRoutes(branches)
}

func (g *Graph) singleRoute(e *Edge) survey.Route {
	if g.Node(e.Target).Type == NodeTypeEnd {
		return survey.NoRoute()
	}
	return survey.SinglePath(e.Target)
}

// SyncRoute rewrites the question's nextQuestion from the current edges.
// It is a no-op for start and end.
func (g *Graph) SyncRoute(id string) {
	n := g.Node(id)
	if n == nil || !n.IsQuestion() {
		return
	}
	n.Question.NextQuestion = g.RouteFor(id)
}
