package survey

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrImmutableID is returned when a patch tries to change a questionId.
	ErrImmutableID     = errors.New("questionId is immutable")
	// ErrDuplicateOption is returned when a patch lists an option value twice.
	ErrDuplicateOption = errors.New("duplicate option value")
)

// QuestionPatch is a partial update of a question. Nil fields are left as is.
// Validation is kept raw so it can be decoded against the (possibly patched)
// question type.
type QuestionPatch struct {
	QuestionID   *string         `json:"questionId,omitempty"`
	Title        *string         `json:"title,omitempty"`
	SectionID    *string         `json:"sectionId,omitempty"`
	QuestionType *QuestionType   `json:"questionType,omitempty"`
	PromptType   *PromptType     `json:"promptType,omitempty"`
	Prompt       *string         `json:"prompt,omitempty"`
	Importance   *Importance     `json:"importance,omitempty"`
	Required     *bool           `json:"required,omitempty"`
	Validation   json.RawMessage `json:"validation,omitempty"`
	Options      *[]Option       `json:"options,omitempty"`
	Audio        *AudioMetadata  `json:"audio,omitempty"`
	DisplayType  *DisplayType    `json:"displayType,omitempty"`
	Placeholder  *string         `json:"placeholder,omitempty"`
	NextQuestion *Route          `json:"nextQuestion,omitempty"`
}

// Apply returns a patched copy of q. Branch entries for option values that
// no longer exist are pruned and returned.
func (p QuestionPatch) Apply(q *Question) (*Question, []string, error) {
	if p.QuestionID != nil && *p.QuestionID != q.QuestionID {
		return nil, nil, ErrImmutableID
	}
	c := q.Clone()
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.SectionID != nil {
		c.SectionID = *p.SectionID
	}
	if p.QuestionType != nil {
		c.QuestionType = *p.QuestionType
	}
	if p.PromptType != nil {
		c.PromptType = *p.PromptType
	}
	if p.Prompt != nil {
		c.Prompt = *p.Prompt
	}
	if p.Importance != nil {
		c.Importance = *p.Importance
	}
	if p.Required != nil {
		c.Required = *p.Required
	}
	if len(p.Validation) > 0 {
		v, err := decodeValidationJSON(p.Validation, c.QuestionType)
		if err != nil {
			return nil, nil, err
		}
		c.Validation = v
	} else if c.QuestionType != q.QuestionType {
		c.Validation = c.Validation.For(c.QuestionType)
	}
	if p.Options != nil {
		seen := make(map[string]struct{}, len(*p.Options))
		for _, o := range *p.Options {
			if _, dup := seen[o.Value]; dup {
				return nil, nil, fmt.Errorf("%w %q", ErrDuplicateOption, o.Value)
			}
			seen[o.Value] = struct{}{}
		}
		c.Options = append([]Option(nil), (*p.Options)...)
	}
	if p.Audio != nil {
		a := *p.Audio
		c.Audio = &a
	}
	if p.DisplayType != nil {
		c.DisplayType = *p.DisplayType
	}
	if p.Placeholder != nil {
		c.Placeholder = *p.Placeholder
	}
	if p.NextQuestion != nil {
		c.NextQuestion = p.NextQuestion.clone()
	}
	var pruned []string
	c.NextQuestion, pruned = c.NextQuestion.Prune(c.OptionValues())
	return c, pruned, nil
}

// UnmarshalJSON keeps an explicit `"nextQuestion": null` distinct from an
// absent field, so a patch can unwire a question.
func (p *QuestionPatch) UnmarshalJSON(data []byte) error {
	type plain QuestionPatch
	aux := struct {
		*plain
		NextQuestion json.RawMessage `json:"nextQuestion"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.NextQuestion = nil
	if aux.NextQuestion != nil {
		var r Route
		if err := r.UnmarshalJSON(aux.NextQuestion); err != nil {
			return err
		}
		p.NextQuestion = &r
	}
	return nil
}
