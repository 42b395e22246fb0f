// Package editor is the single writer of a survey being edited. A Session owns
// the editing graph together with the document metadata and sections, applies
// every mutation atomically and re-runs the structural validator after each
// structural change.
package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/logging"
	"github.com/gyaneshwarpardhi/surveyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/surveyflow/internal/palette"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
	"github.com/gyaneshwarpardhi/surveyflow/internal/transform"
	"github.com/gyaneshwarpardhi/surveyflow/internal/validator"
)

var (
	startPosition = survey.Position{X: 50, Y: 200}
	endPosition   = survey.Position{X: 400, Y: 200}
)

// Session is an edit session. It is safe for concurrent use; mutations are
// serialized.
type Session struct {
	mu sync.RWMutex

	log         *slog.Logger
	palette     *palette.Registry
	transformer *transform.Transformer
	strictness  validator.Strictness

	meta    *survey.Survey
	g       *graph.Graph
	counter int
	report  validator.Report
	dirty   bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPalette sets the question-type registry used by AddQuestionNode.
func WithPalette(r *palette.Registry) Option {
	return func(s *Session) {
		if r != nil {
			s.palette = r
		}
	}
}

// WithTransformer sets the transformer used by Load, Document and Export.
func WithTransformer(t *transform.Transformer) Option {
	return func(s *Session) {
		if t != nil {
			s.transformer = t
		}
	}
}

// WithStrictness sets the validator variant run after each mutation.
// Export always uses validator.Full.
func WithStrictness(st validator.Strictness) Option {
	return func(s *Session) { s.strictness = st }
}

// New returns a session holding a fresh survey.
func New(opts ...Option) *Session {
	s := &Session{
		log:        logging.NewNop(),
		palette:    palette.Default(),
		strictness: validator.Full,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transformer == nil {
		s.transformer = transform.New(transform.WithLogger(s.log))
	}
	s.Create()
	return s
}

// Create discards the current survey and starts an empty one: start and end
// nodes only, one section, no edges.
func (s *Session) Create() {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := graph.New()
	g.AddNode(graph.NewStartNode(startPosition))
	g.AddNode(graph.NewEndNode(endPosition))
	s.replace(survey.New(), g, 0)
	s.log.Info("survey created", "survey_id", s.meta.SurveyID)
}

// Reset is Create under the name the editor toolbar uses.
func (s *Session) Reset() { s.Create() }

// Load replaces the session contents with doc. Malformed layout entries are
// skipped by the transformer. The question counter continues after the
// highest Q<n> id found.
func (s *Session) Load(doc *survey.Survey) {
	g := s.transformer.DocumentToGraph(doc)
	counter := doc.MaxQuestionNumber()
	for _, n := range g.QuestionNodes() {
		if v, ok := survey.QuestionNumber(n.ID); ok && v > counter {
			counter = v
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(doc.Meta(), g, counter)
	s.log.Info("survey loaded",
		"survey_id", s.meta.SurveyID,
		"questions", len(g.QuestionNodes()),
		"edges", len(g.Edges()),
		"errors", len(s.report.Errors()),
	)
}

func (s *Session) replace(meta *survey.Survey, g *graph.Graph, counter int) {
	s.meta = meta
	s.g = g
	s.counter = counter
	s.dirty = false
	s.revalidate()
}

// SetStrictness switches the variant used after mutations and re-validates.
func (s *Session) SetStrictness(st validator.Strictness) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strictness == st {
		return
	}
	s.strictness = st
	s.revalidate()
}

// Graph returns a copy of the editing graph.
func (s *Session) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.Clone()
}

// Meta returns a copy of the document metadata and sections.
func (s *Session) Meta() *survey.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Clone()
}

// Document compiles the current graph without gating on the validator. Use
// Export for the gated variant.
func (s *Session) Document() *survey.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transformer.GraphToDocument(s.g, s.meta)
}

// Report returns the diagnostics of the last validator run.
func (s *Session) Report() validator.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Diagnostics returns the findings attached to one node.
func (s *Session) Diagnostics(nodeID string) []validator.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report.ByNode()[nodeID]
}

// Dirty reports whether the survey changed since it was created, loaded or
// exported.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// revalidate must be called with mu held for writing.
func (s *Session) revalidate() {
	s.report = runValidator(s.g, s.strictness)
}

func runValidator(g *graph.Graph, st validator.Strictness) validator.Report {
	started := time.Now()
	rep := validator.Validate(g, st)
	metrics.ValidationDuration.Observe(float64(time.Since(started).Microseconds()) / 1000)
	metrics.ValidationRuns.WithLabelValues(string(rep.Strictness)).Inc()
	for _, d := range rep.Diagnostics {
		metrics.Diagnostics.WithLabelValues(string(d.Kind), string(d.Severity)).Inc()
	}
	return rep
}
