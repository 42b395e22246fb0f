package editor

import (
	"fmt"

	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

// SectionPatch is a partial update of a section. Nil fields are left as is.
type SectionPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	QuestionIDs *[]string `json:"questionIds,omitempty"`
	Required    *bool     `json:"required,omitempty"`
}

// MetaPatch is a partial update of the survey metadata.
type MetaPatch struct {
	Title              *string            `json:"title,omitempty"`
	Description        *string            `json:"description,omitempty"`
	Version            *string            `json:"version,omitempty"`
	Language           *survey.Language   `json:"language,omitempty"`
	SupportedLanguages *[]survey.Language `json:"supportedLanguages,omitempty"`
	Creator            *survey.Creator    `json:"creator,omitempty"`
	Schedule           *survey.Schedule   `json:"schedule,omitempty"`
	Settings           *survey.Settings   `json:"settings,omitempty"`
}

// AddSection appends a section. An empty id is replaced with the next free
// SEC<n>.
func (s *Session) AddSection(sec survey.Section) (string, error) {
	var id string
	err := s.mutate("add_section", func(d *draft) error {
		if sec.SectionID == "" {
			sec.SectionID = freeSectionID(d.meta.Sections)
		}
		if sectionIndex(d.meta.Sections, sec.SectionID) >= 0 {
			return fmt.Errorf("%s: %w", sec.SectionID, ErrDuplicateSection)
		}
		sec.QuestionIDs = append([]string{}, sec.QuestionIDs...)
		d.meta.Sections = append(d.meta.Sections, sec)
		id = sec.SectionID
		return nil
	})
	return id, err
}

// UpdateSection patches a section in place.
func (s *Session) UpdateSection(id string, patch SectionPatch) error {
	return s.mutate("update_section", func(d *draft) error {
		i := sectionIndex(d.meta.Sections, id)
		if i < 0 {
			return fmt.Errorf("%s: %w", id, ErrSectionNotFound)
		}
		sec := &d.meta.Sections[i]
		if patch.Title != nil {
			sec.Title = *patch.Title
		}
		if patch.Description != nil {
			sec.Description = *patch.Description
		}
		if patch.QuestionIDs != nil {
			sec.QuestionIDs = append([]string{}, (*patch.QuestionIDs)...)
		}
		if patch.Required != nil {
			sec.Required = *patch.Required
		}
		return nil
	})
}

// DeleteSection removes a section. Its questions stay in the graph and fall
// back to whichever section still lists them.
func (s *Session) DeleteSection(id string) error {
	return s.mutate("delete_section", func(d *draft) error {
		i := sectionIndex(d.meta.Sections, id)
		if i < 0 {
			return fmt.Errorf("%s: %w", id, ErrSectionNotFound)
		}
		d.meta.Sections = append(d.meta.Sections[:i], d.meta.Sections[i+1:]...)
		return nil
	})
}

// UpdateMeta patches title, description, language, schedule and settings.
func (s *Session) UpdateMeta(patch MetaPatch) error {
	return s.mutate("update_meta", func(d *draft) error {
		m := d.meta
		if patch.Title != nil {
			m.Title = *patch.Title
		}
		if patch.Description != nil {
			m.Description = *patch.Description
		}
		if patch.Version != nil {
			m.Version = *patch.Version
		}
		if patch.Language != nil {
			m.Language = *patch.Language
		}
		if patch.SupportedLanguages != nil {
			m.SupportedLanguages = append([]survey.Language(nil), (*patch.SupportedLanguages)...)
		}
		if patch.Creator != nil {
			m.Creator = *patch.Creator
		}
		if patch.Schedule != nil {
			m.Schedule = *patch.Schedule
			m.Schedule.OffTime = append([]survey.OffTime(nil), patch.Schedule.OffTime...)
		}
		if patch.Settings != nil {
			m.Settings = *patch.Settings
		}
		return nil
	})
}

// moveToSection lists id only under the target section.
func moveToSection(meta *survey.Survey, id, target string) error {
	i := sectionIndex(meta.Sections, target)
	if i < 0 {
		return fmt.Errorf("%s: %w", target, ErrSectionNotFound)
	}
	for j := range meta.Sections {
		meta.Sections[j].QuestionIDs = without(meta.Sections[j].QuestionIDs, id)
	}
	meta.Sections[i].QuestionIDs = append(meta.Sections[i].QuestionIDs, id)
	return nil
}

func sectionIndex(secs []survey.Section, id string) int {
	for i, sec := range secs {
		if sec.SectionID == id {
			return i
		}
	}
	return -1
}

func freeSectionID(secs []survey.Section) string {
	for n := len(secs) + 1; ; n++ {
		id := fmt.Sprintf("SEC%d", n)
		if sectionIndex(secs, id) < 0 {
			return id
		}
	}
}
