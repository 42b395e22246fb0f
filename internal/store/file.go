package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

const fileExt = ".json"

// FileStore keeps one JSON file per survey in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir. An empty dir means "surveys".
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "surveys"
	}
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.Dir, id+fileExt)
}

// Save writes the document atomically: temp file in the same directory,
// fsync, rename over the destination.
func (s *FileStore) Save(_ context.Context, doc *survey.Survey) error {
	if err := checkID(doc.SurveyID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create survey dir: %w", err)
	}
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode survey %s: %w", doc.SurveyID, err)
	}

	tmp, err := os.CreateTemp(s.Dir, "tmp-"+doc.SurveyID+"-*"+fileExt)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(doc.SurveyID)); err != nil {
		return fmt.Errorf("rename survey %s: %w", doc.SurveyID, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, surveyID string) (*survey.Survey, error) {
	if err := checkID(surveyID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(surveyID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", surveyID, ErrNotFound)
		}
		return nil, fmt.Errorf("read survey %s: %w", surveyID, err)
	}
	return DecodeDocument(s.path(surveyID), data)
}

// Delete removes a survey file. Deleting a missing survey is not an error.
func (s *FileStore) Delete(_ context.Context, surveyID string) error {
	if err := checkID(surveyID); err != nil {
		return err
	}
	if err := os.Remove(s.path(surveyID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete survey %s: %w", surveyID, err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != fileExt || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}
