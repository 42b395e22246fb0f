package api

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/surveyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/surveyflow/internal/navigation"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

var (
	errRunNotFound = errors.New("run not found")
	errTooManyRuns = errors.New("too many active runs")
)

// run is one respondent's runner guarded by its own lock.
type run struct {
	mu       sync.Mutex
	id       string
	surveyID string
	runner   *navigation.Runner
}

// runRegistry holds respondent runs in memory, keyed by uuid.
type runRegistry struct {
	mu   sync.RWMutex
	max  int
	runs map[string]*run
}

func newRunRegistry(max int) *runRegistry {
	return &runRegistry{max: max, runs: make(map[string]*run)}
}

func (r *runRegistry) start(doc *survey.Survey) (*run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.runs) >= r.max {
		return nil, fmt.Errorf("%w (max %d)", errTooManyRuns, r.max)
	}
	rn := &run{id: uuid.New().String(), surveyID: doc.SurveyID, runner: navigation.NewRunner(doc)}
	r.runs[rn.id] = rn
	metrics.ActiveRuns.Set(float64(len(r.runs)))
	return rn, nil
}

func (r *runRegistry) get(id string) (*run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rn, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, errRunNotFound)
	}
	return rn, nil
}

func (r *runRegistry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[id]; !ok {
		return fmt.Errorf("%s: %w", id, errRunNotFound)
	}
	delete(r.runs, id)
	metrics.ActiveRuns.Set(float64(len(r.runs)))
	return nil
}

// runView is the JSON form of a run.
type runView struct {
	RunID    string `json:"runId"`
	SurveyID string `json:"surveyId"`
	navigation.Snapshot
}

func (rn *run) view() runView {
	return runView{RunID: rn.id, SurveyID: rn.surveyID, Snapshot: rn.runner.Snapshot()}
}
