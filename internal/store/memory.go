package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// MemoryStore keeps documents in a map. Documents are copied on the way in
// and out.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*survey.Survey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*survey.Survey)}
}

func (s *MemoryStore) Save(_ context.Context, doc *survey.Survey) error {
	if err := checkID(doc.SurveyID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.SurveyID] = doc.Clone()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, surveyID string) (*survey.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[surveyID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", surveyID, ErrNotFound)
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, surveyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, surveyID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
