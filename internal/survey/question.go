package survey

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// QuestionType is extensible; these are the built-in types.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TextOpinion    QuestionType = "text_opinion"
	VoiceOpinion   QuestionType = "voice_opinion"
)

type PromptType string

const (
	TextPrompt  PromptType = "text_prompt"
	VoicePrompt PromptType = "voice_prompt"
)

type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

type DisplayType string

const (
	DisplayDefault DisplayType = "default"
	DisplayLikert  DisplayType = "likert_scale"
)

// Option is one selectable answer of a multiple-choice question.
// Value is the key used by answers and by branch maps.
type Option struct {
	Value    string  `json:"value" yaml:"value"`
	Label    string  `json:"label" yaml:"label"`
	Score    float64 `json:"score" yaml:"score"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
}

// AudioMetadata describes a voice prompt or a recording constraint.
// Only the reference and metadata are stored; no audio is processed.
type AudioMetadata struct {
	Format           string  `json:"format" yaml:"format"`
	Duration         float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	MaxRecordingTime float64 `json:"maxRecordingTime,omitempty" yaml:"maxRecordingTime,omitempty"`
	HasTranscript    bool    `json:"hasTranscript" yaml:"hasTranscript"`
	Transcript       string  `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	URL              string  `json:"url,omitempty" yaml:"url,omitempty"`
}

// Question is a single prompt. NextQuestion is the only source of branching.
type Question struct {
	QuestionID   string         `json:"questionId" yaml:"questionId"`
	Title        string         `json:"title" yaml:"title"`
	SectionID    string         `json:"sectionId" yaml:"sectionId"`
	QuestionType QuestionType   `json:"questionType" yaml:"questionType"`
	PromptType   PromptType     `json:"promptType" yaml:"promptType"`
	Prompt       string         `json:"prompt" yaml:"prompt"`
	Importance   Importance     `json:"importance" yaml:"importance"`
	Required     bool           `json:"required" yaml:"required"`
	Validation   Validation     `json:"validation" yaml:"validation"`
	Options      []Option       `json:"options,omitempty" yaml:"options,omitempty"`
	Audio        *AudioMetadata `json:"audio,omitempty" yaml:"audio,omitempty"`
	DisplayType  DisplayType    `json:"displayType,omitempty" yaml:"displayType,omitempty"`
	Placeholder  string         `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	NextQuestion Route          `json:"nextQuestion" yaml:"nextQuestion"`
}

type questionAlias Question

// UnmarshalJSON decodes the validation rule according to the question type.
func (q *Question) UnmarshalJSON(data []byte) error {
	aux := struct {
		*questionAlias
		Validation json.RawMessage `json:"validation"`
	}{questionAlias: (*questionAlias)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v, err := decodeValidationJSON(aux.Validation, q.QuestionType)
	if err != nil {
		return fmt.Errorf("question %s: %w", q.QuestionID, err)
	}
	q.Validation = v
	return nil
}

// UnmarshalYAML decodes the validation rule according to the question type.
func (q *Question) UnmarshalYAML(node *yaml.Node) error {
	var a questionAlias
	if err := node.Decode(&a); err != nil {
		return err
	}
	*q = Question(a)
	q.Validation = Validation{}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "validation" {
			continue
		}
		v, err := decodeValidationYAML(node.Content[i+1], q.QuestionType)
		if err != nil {
			return fmt.Errorf("question %s: %w", q.QuestionID, err)
		}
		q.Validation = v
	}
	return nil
}

// IsBranching reports whether nextQuestion is an option→target map.
func IsBranching(q *Question) bool {
	return q != nil && q.NextQuestion.Kind() == RouteConditional
}

// IsSinglePath reports whether nextQuestion is a single target.
func IsSinglePath(q *Question) bool {
	return q != nil && q.NextQuestion.Kind() == RouteSingle
}

// IsUnwired reports a question with no defined successor. This is neither
// "terminal" nor "branching" until the editor wires it.
func IsUnwired(q *Question) bool {
	return q == nil || q.NextQuestion.Kind() == RouteNone
}

// OptionValues returns the set of option values.
func (q *Question) OptionValues() map[string]struct{} {
	set := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		set[o.Value] = struct{}{}
	}
	return set
}

// Option finds an option by value.
func (q *Question) Option(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	if q.Options != nil {
		c.Options = append([]Option(nil), q.Options...)
	}
	if q.Audio != nil {
		a := *q.Audio
		c.Audio = &a
	}
	c.Validation = q.Validation.clone()
	c.NextQuestion = q.NextQuestion.clone()
	return &c
}

func (v Validation) clone() Validation {
	var c Validation
	if v.Selection != nil {
		s := *v.Selection
		c.Selection = &s
	}
	if v.Text != nil {
		t := *v.Text
		c.Text = &t
	}
	if v.Audio != nil {
		a := *v.Audio
		c.Audio = &a
	}
	return c
}

func (r Route) clone() Route {
	if r.kind == RouteConditional {
		return ConditionalRoutes(r.branches)
	}
	return r
}

// CheckQuestion returns content problems of a single question: missing title,
// missing text prompt, too few options, duplicate option values, empty labels.
func CheckQuestion(q *Question) []string {
	var problems []string
	if strings.TrimSpace(q.Title) == "" {
		problems = append(problems, "question title is required")
	}
	if q.PromptType != VoicePrompt && strings.TrimSpace(q.Prompt) == "" {
		problems = append(problems, "prompt text is required")
	}
	if q.QuestionType != MultipleChoice {
		return problems
	}
	if len(q.Options) < 2 {
		problems = append(problems, "multiple choice question needs at least 2 options")
		return problems
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		if _, dup := seen[o.Value]; dup {
			problems = append(problems, fmt.Sprintf("option value %q is duplicated", o.Value))
		}
		seen[o.Value] = struct{}{}
		if strings.TrimSpace(o.Label) == "" {
			problems = append(problems, fmt.Sprintf("option %q needs a label", o.Value))
		}
	}
	return problems
}
