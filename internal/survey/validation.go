package survey

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RuleKind names the shape of a validation rule.
type RuleKind string

const (
	RuleNone      RuleKind = ""
	RuleSelection RuleKind = "selection"
	RuleText      RuleKind = "text"
	RuleAudio     RuleKind = "audio"
)

// SelectionRule bounds how many options a respondent may pick.
// A zero bound is not enforced.
type SelectionRule struct {
	MinSelections int `json:"minSelections" yaml:"minSelections"`
	MaxSelections int `json:"maxSelections" yaml:"maxSelections"`
}

// TextRule bounds free text length and optionally constrains it with a regexp.
type TextRule struct {
	MinLength int    `json:"minLength" yaml:"minLength"`
	MaxLength int    `json:"maxLength" yaml:"maxLength"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// AudioRule bounds a recording's duration in seconds.
type AudioRule struct {
	MinDuration float64 `json:"minDuration" yaml:"minDuration"`
	MaxDuration float64 `json:"maxDuration" yaml:"maxDuration"`
}

// Validation is a discriminated union: at most one of the rules is set.
type Validation struct {
	Selection *SelectionRule
	Text      *TextRule
	Audio     *AudioRule
}

// Kind reports which rule is set.
func (v Validation) Kind() RuleKind {
	switch {
	case v.Selection != nil:
		return RuleSelection
	case v.Text != nil:
		return RuleText
	case v.Audio != nil:
		return RuleAudio
	default:
		return RuleNone
	}
}

// For returns the rule that applies to questions of type t. A rule of another
// shape is dropped; types without a built-in rule keep whatever is set.
func (v Validation) For(t QuestionType) Validation {
	switch RuleKindFor(t) {
	case RuleSelection:
		return Validation{Selection: v.Selection}
	case RuleText:
		return Validation{Text: v.Text}
	case RuleAudio:
		return Validation{Audio: v.Audio}
	default:
		return v
	}
}

// RuleKindFor returns the rule shape a question type validates with.
func RuleKindFor(t QuestionType) RuleKind {
	switch t {
	case MultipleChoice:
		return RuleSelection
	case TextOpinion:
		return RuleText
	case VoiceOpinion:
		return RuleAudio
	default:
		return RuleNone
	}
}

type validationWire struct {
	Type          RuleKind `json:"type" yaml:"type"`
	MinSelections *int     `json:"minSelections,omitempty" yaml:"minSelections,omitempty"`
	MaxSelections *int     `json:"maxSelections,omitempty" yaml:"maxSelections,omitempty"`
	MinLength     *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength     *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern       *string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinDuration   *float64 `json:"minDuration,omitempty" yaml:"minDuration,omitempty"`
	MaxDuration   *float64 `json:"maxDuration,omitempty" yaml:"maxDuration,omitempty"`
}

func (v Validation) wire() *validationWire {
	switch v.Kind() {
	case RuleSelection:
		return &validationWire{Type: RuleSelection, MinSelections: &v.Selection.MinSelections, MaxSelections: &v.Selection.MaxSelections}
	case RuleText:
		w := &validationWire{Type: RuleText, MinLength: &v.Text.MinLength, MaxLength: &v.Text.MaxLength}
		if v.Text.Pattern != "" {
			w.Pattern = &v.Text.Pattern
		}
		return w
	case RuleAudio:
		return &validationWire{Type: RuleAudio, MinDuration: &v.Audio.MinDuration, MaxDuration: &v.Audio.MaxDuration}
	}
	return nil
}

// toValidation builds the union. Built-in question types decide the shape and
// reject an explicit "type" naming another rule; other types use "type".
func (w *validationWire) toValidation(qt QuestionType) (Validation, error) {
	kind := RuleKindFor(qt)
	switch {
	case kind == RuleNone:
		kind = w.Type
	case w.Type != RuleNone && w.Type != kind:
		return Validation{}, fmt.Errorf("validation: %s rule does not apply to %s questions", w.Type, qt)
	}
	switch kind {
	case RuleSelection:
		return Validation{Selection: &SelectionRule{MinSelections: intOr(w.MinSelections), MaxSelections: intOr(w.MaxSelections)}}, nil
	case RuleText:
		r := &TextRule{MinLength: intOr(w.MinLength), MaxLength: intOr(w.MaxLength)}
		if w.Pattern != nil {
			r.Pattern = *w.Pattern
		}
		return Validation{Text: r}, nil
	case RuleAudio:
		return Validation{Audio: &AudioRule{MinDuration: floatOr(w.MinDuration), MaxDuration: floatOr(w.MaxDuration)}}, nil
	case RuleNone:
		return Validation{}, nil
	default:
		return Validation{}, fmt.Errorf("validation: unknown rule type %q", kind)
	}
}

func intOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func floatOr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// MarshalJSON writes the rule with an explicit "type" tag, or null when unset.
func (v Validation) MarshalJSON() ([]byte, error) {
	w := v.wire()
	if w == nil {
		return []byte("null"), nil
	}
	return json.Marshal(w)
}

// MarshalYAML mirrors MarshalJSON.
func (v Validation) MarshalYAML() (interface{}, error) {
	w := v.wire()
	if w == nil {
		return nil, nil
	}
	return w, nil
}

func decodeValidationJSON(raw json.RawMessage, qt QuestionType) (Validation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Validation{}, nil
	}
	var w validationWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Validation{}, fmt.Errorf("validation: %w", err)
	}
	return w.toValidation(qt)
}

func decodeValidationYAML(node *yaml.Node, qt QuestionType) (Validation, error) {
	if node == nil || node.Kind == 0 || node.Tag == "!!null" {
		return Validation{}, nil
	}
	var w validationWire
	if err := node.Decode(&w); err != nil {
		return Validation{}, fmt.Errorf("validation: %w", err)
	}
	return w.toValidation(qt)
}
