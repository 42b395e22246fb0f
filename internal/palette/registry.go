// Package palette holds the question types an editor can drop onto the canvas
// and the template each one starts from.
package palette

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// Template builds the initial question for a palette item.
type Template struct {
	Type  survey.QuestionType
	Label string
	// New returns a fresh question with the given id; callers own the result.
	New func(id string) survey.Question
}

// Registry maps question type strings to their templates.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	templates map[survey.QuestionType]Template
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[survey.QuestionType]Template)}
}

// Default returns a registry with the built-in question types.
func Default() *Registry {
	r := NewRegistry()
	r.Register(multipleChoice())
	r.Register(textOpinion())
	r.Register(voiceOpinion())
	return r
}

// Register adds a template. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[t.Type]; exists {
		panic(fmt.Sprintf("palette: duplicate question type %q", t.Type))
	}
	r.templates[t.Type] = t
}

// Get returns the template for the given type.
func (r *Registry) Get(t survey.QuestionType) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[t]
	if !ok {
		return Template{}, fmt.Errorf("no template registered for question type %q", t)
	}
	return tpl, nil
}

// Types returns all registered question types, sorted.
func (r *Registry) Types() []survey.QuestionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]survey.QuestionType, 0, len(r.templates))
	for k := range r.templates {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
