// Package store loads and saves survey documents. The document is opaque to
// the store: it is written as the JSON interchange format and read back
// without interpretation.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

var (
	ErrNotFound  = errors.New("survey not found")
	ErrInvalidID = errors.New("invalid survey id")
)

// Store persists survey documents by surveyId.
type Store interface {
	Save(ctx context.Context, doc *survey.Survey) error
	// Load returns ErrNotFound if no document has that id.
	Load(ctx context.Context, surveyID string) (*survey.Survey, error)
	Delete(ctx context.Context, surveyID string) error
	// List returns the stored ids in sorted order.
	List(ctx context.Context) ([]string, error)
}

// checkID rejects ids that cannot name a file.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	return nil
}

// DecodeDocument parses an imported document. Files ending in .yaml or .yml
// are read as YAML, everything else as JSON.
func DecodeDocument(name string, data []byte) (*survey.Survey, error) {
	var doc survey.Survey
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return &doc, nil
}

// EncodeDocument renders doc in the persisted JSON form.
func EncodeDocument(doc *survey.Survey) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
