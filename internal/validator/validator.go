// Package validator checks an editing graph for structural problems:
// reachability in both directions, cycles, dangling ports, duplicate ids and
// invalid endpoints. It never fails; every finding is a Diagnostic.
package validator

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// Strictness selects the validator variant.
type Strictness string

const (
	// Full is the pre-export check: orphans, dangling option ports and dead
	// ends are errors.
	Full Strictness = "full"
	// Quick is the live editing check: orphans and dangling option ports are
	// warnings and dead-end analysis is skipped.
	Quick Strictness = "quick"
)

// ParseStrictness accepts "full" or "quick"; empty means Full.
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", Full:
		return Full, nil
	case Quick:
		return Quick, nil
	}
	return Full, fmt.Errorf("unknown validation strictness %q", s)
}

type run struct {
	g      *graph.Graph
	strict Strictness
	out    []Diagnostic
	// adjacency over edges whose endpoints both exist
	succ map[string][]*graph.Edge
	pred map[string][]*graph.Edge
}

// Validate runs every check and returns the diagnostics in a deterministic
// order: endpoints, duplicates, content, ports, reachability, cycles.
func Validate(g *graph.Graph, s Strictness) Report {
	if s != Quick {
		s = Full
	}
	r := &run{
		g:      g,
		strict: s,
		succ:   make(map[string][]*graph.Edge),
		pred:   make(map[string][]*graph.Edge),
	}
	r.checkSentinels()
	r.checkEdges()
	r.checkDuplicates()
	r.checkQuestions()
	r.checkPorts()
	r.checkReachability()
	r.checkCycles()
	return Report{Strictness: s, Diagnostics: r.out}
}

func (r *run) add(kind Kind, sev Severity, nodeID, edgeID, format string, args ...interface{}) {
	r.out = append(r.out, Diagnostic{
		Kind:     kind,
		Severity: sev,
		NodeID:   nodeID,
		EdgeID:   edgeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

// lenient is the severity for findings the Quick variant downgrades.
func (r *run) lenient() Severity {
	if r.strict == Quick {
		return SeverityWarning
	}
	return SeverityError
}

func (r *run) checkSentinels() {
	var starts, ends int
	for _, n := range r.g.Nodes() {
		switch n.Type {
		case graph.NodeTypeStart:
			starts++
		case graph.NodeTypeEnd:
			ends++
		}
	}
	if starts == 0 {
		r.add(KindMissingStart, SeverityError, "", "", "survey has no start node")
	}
	if ends == 0 {
		r.add(KindMissingEnd, SeverityError, "", "", "survey has no end node")
	}
}

func (r *run) checkEdges() {
	for _, e := range r.g.Edges() {
		src, dst := r.g.Node(e.Source), r.g.Node(e.Target)
		switch {
		case src == nil:
			r.add(KindInvalidEndpoint, SeverityError, "", e.ID, "edge source %q does not exist", e.Source)
			continue
		case dst == nil:
			r.add(KindInvalidEndpoint, SeverityError, e.Source, e.ID, "edge target %q does not exist", e.Target)
			continue
		}
		switch {
		case src.Type == graph.NodeTypeEnd:
			r.add(KindInvalidEndpoint, SeverityError, e.Source, e.ID, "edge leaves the end node")
		case dst.Type == graph.NodeTypeStart:
			r.add(KindInvalidEndpoint, SeverityError, e.Source, e.ID, "edge enters the start node")
		case e.Source == e.Target:
			r.add(KindInvalidEndpoint, SeverityError, e.Source, e.ID, "edge connects %s to itself", e.Source)
		}
		r.succ[e.Source] = append(r.succ[e.Source], e)
		r.pred[e.Target] = append(r.pred[e.Target], e)
	}
}

func (r *run) checkDuplicates() {
	seen := make(map[string]int)
	for _, n := range r.g.Nodes() {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			r.add(KindDuplicateID, SeverityError, n.ID, "", "id %s is used by more than one node", n.ID)
		}
	}
}

func (r *run) checkQuestions() {
	for _, n := range r.g.QuestionNodes() {
		for _, p := range survey.CheckQuestion(n.Question) {
			r.add(KindInvalidQuestion, SeverityError, n.ID, "", "%s", p)
		}
	}
}

// branching reports whether a question is in multi-branch mode: a multiple
// choice question wired through option ports or carrying a branch map.
func (r *run) branching(n *graph.Node) bool {
	if n.Question.QuestionType != survey.MultipleChoice {
		return false
	}
	if survey.IsBranching(n.Question) {
		return true
	}
	for _, e := range r.succ[n.ID] {
		if _, ok := e.Option(); ok {
			return true
		}
	}
	return false
}

func (r *run) checkPorts() {
	for _, n := range r.g.Nodes() {
		switch {
		case n.Type == graph.NodeTypeStart:
			r.checkSinglePort(n, "start")
		case n.IsQuestion():
			if r.branching(n) {
				r.checkOptionPorts(n)
				continue
			}
			if n.Question.QuestionType != survey.MultipleChoice {
				r.checkForeignBranches(n)
			}
			r.checkSinglePort(n, "question "+n.ID)
		}
	}
}

// checkForeignBranches flags option routing on a question that has no
// options to branch on.
func (r *run) checkForeignBranches(n *graph.Node) {
	for _, e := range r.succ[n.ID] {
		if opt, ok := e.Option(); ok {
			r.add(KindAmbiguousRoute, SeverityError, n.ID, e.ID, "%s question %s cannot branch on option %q", n.Question.QuestionType, n.ID, opt)
		}
	}
	if survey.IsBranching(n.Question) {
		r.add(KindAmbiguousRoute, SeverityError, n.ID, "", "%s question %s carries a branch map; only multiple choice questions branch", n.Question.QuestionType, n.ID)
	}
}

func (r *run) checkSinglePort(n *graph.Node, what string) {
	out := r.succ[n.ID]
	switch {
	case len(out) == 0:
		r.add(KindMissingConnection, SeverityError, n.ID, "", "%s has no outgoing connection", what)
	case len(out) > 1:
		r.add(KindAmbiguousRoute, SeverityError, n.ID, "", "%s has %d outgoing connections, expected one", what, len(out))
	}
}

func (r *run) checkOptionPorts(n *graph.Node) {
	values := n.Question.OptionValues()
	wired := make(map[string]string)
	for _, e := range r.succ[n.ID] {
		opt, ok := e.Option()
		if !ok {
			r.add(KindAmbiguousRoute, SeverityWarning, n.ID, e.ID, "default connection is ignored while options branch")
			continue
		}
		if _, live := values[opt]; !live {
			r.add(KindStaleBranch, SeverityWarning, n.ID, e.ID, "connection for removed option %q", opt)
			continue
		}
		if prev, dup := wired[opt]; dup && prev != e.Target {
			r.add(KindAmbiguousRoute, SeverityError, n.ID, e.ID, "option %q is connected to both %s and %s", opt, prev, e.Target)
			continue
		}
		wired[opt] = e.Target
	}
	for _, key := range n.Question.NextQuestion.BranchKeys() {
		if _, live := values[key]; !live {
			if _, hasEdge := wired[key]; !hasEdge {
				r.add(KindStaleBranch, SeverityWarning, n.ID, "", "branch for removed option %q", key)
			}
		}
	}
	for _, o := range n.Question.Options {
		if _, ok := wired[o.Value]; !ok {
			r.add(KindDanglingPort, r.lenient(), n.ID, "", "option %q has no connection", o.Value)
		}
	}
}

func (r *run) checkReachability() {
	forward := r.walk(graph.StartID, func(id string) []string { return targets(r.succ[id]) })
	for _, n := range r.g.QuestionNodes() {
		if _, ok := forward[n.ID]; !ok {
			r.add(KindOrphan, r.lenient(), n.ID, "", "question %s is not reachable from start", n.ID)
		}
	}
	if r.strict == Quick {
		return
	}
	backward := r.walk(graph.EndID, func(id string) []string { return sources(r.pred[id]) })
	for _, n := range r.g.QuestionNodes() {
		_, reached := forward[n.ID]
		_, finishes := backward[n.ID]
		if reached && !finishes {
			r.add(KindDeadEnd, SeverityError, n.ID, "", "question %s cannot reach the end", n.ID)
		}
	}
	if r.g.HasNode(graph.StartID) && r.g.HasNode(graph.EndID) {
		if _, ok := forward[graph.EndID]; !ok {
			r.add(KindInvalidPath, SeverityError, graph.StartID, "", "no path from start to end")
		}
	}
}

// walk is a BFS from root; it returns the visited set (root included).
func (r *run) walk(root string, next func(string) []string) map[string]struct{} {
	seen := make(map[string]struct{})
	if !r.g.HasNode(root) {
		return seen
	}
	queue := []string{root}
	seen[root] = struct{}{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, nb := range next(id) {
			if _, ok := seen[nb]; ok {
				continue
			}
			seen[nb] = struct{}{}
			queue = append(queue, nb)
		}
	}
	return seen
}

func targets(es []*graph.Edge) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Target
	}
	return out
}

func sources(es []*graph.Edge) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Source
	}
	return out
}

// checkCycles is a DFS with recursion-stack tracking; every back edge is one
// reported cycle. Self loops are already invalid endpoints and are skipped.
func (r *run) checkCycles() {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		stack = append(stack, id)
		for _, e := range r.succ[id] {
			if e.Target == e.Source {
				continue
			}
			switch color[e.Target] {
			case white:
				visit(e.Target)
			case grey:
				r.add(KindCycle, SeverityError, e.Target, e.ID, "cycle: %s", strings.Join(cyclePath(stack, e.Target), " -> "))
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}
	for _, n := range r.g.Nodes() {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}
}

func cyclePath(stack []string, to string) []string {
	i := survey.IndexOf(stack, to)
	path := append([]string{}, stack[i:]...)
	return append(path, to)
}
