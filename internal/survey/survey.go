// Package survey defines the persisted survey document: the aggregate Survey,
// its sections and questions, and the optional layout payload that lets an
// editor rebuild the exact graph a user drew.
package survey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultSectionID is used when a document arrives without sections.
const DefaultSectionID = "section-default"

type Language string

type Creator struct {
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
	Email      string `json:"email" yaml:"email"`
}

type DateRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type OffTime struct {
	Name  string `json:"name" yaml:"name"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type Schedule struct {
	Date     DateRange `json:"date" yaml:"date"`
	Time     DateRange `json:"time" yaml:"time"`
	OffTime  []OffTime `json:"offtime" yaml:"offtime"`
	TimeZone string    `json:"timeZone" yaml:"timeZone"`
}

type Settings struct {
	AllowAnonymous      bool    `json:"allowAnonymous" yaml:"allowAnonymous"`
	AllowRevision       bool    `json:"allowRevision" yaml:"allowRevision"`
	EstimatedDuration   float64 `json:"estimatedDuration" yaml:"estimatedDuration"`
	ShowProgress        bool    `json:"showProgress" yaml:"showProgress"`
	RandomizeQuestions  bool    `json:"randomizeQuestions" yaml:"randomizeQuestions"`
	RequireAllQuestions bool    `json:"requireAllQuestions" yaml:"requireAllQuestions"`
}

// Section is an ordered, named grouping of question ids. Sections drive the
// linear fallback order only; question-level branching always wins.
type Section struct {
	SectionID   string   `json:"sectionId" yaml:"sectionId"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	QuestionIDs []string `json:"questionIds" yaml:"questionIds"`
	Required    bool     `json:"required" yaml:"required"`
}

// Position is an opaque canvas coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type LayoutNode struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
}

type EdgeData struct {
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

type LayoutEdge struct {
	ID           string    `json:"id" yaml:"id"`
	Source       string    `json:"source" yaml:"source"`
	Target       string    `json:"target" yaml:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty" yaml:"data,omitempty"`
}

// Condition returns the edge's condition string, if any.
func (e LayoutEdge) Condition() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.Condition
}

// Layout is presentation state: not needed to run a survey, needed to
// reproduce the edited graph.
type Layout struct {
	Nodes []LayoutNode `json:"nodes" yaml:"nodes"`
	Edges []LayoutEdge `json:"edges" yaml:"edges"`
}

// Survey is the aggregate root and the sole interchange format.
type Survey struct {
	SurveyID           string     `json:"surveyId" yaml:"surveyId"`
	Version            string     `json:"version" yaml:"version"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description" yaml:"description"`
	Language           Language   `json:"language" yaml:"language"`
	SupportedLanguages []Language `json:"supportedLanguages,omitempty" yaml:"supportedLanguages,omitempty"`
	Creator            Creator    `json:"creator" yaml:"creator"`
	Schedule           Schedule   `json:"schedule" yaml:"schedule"`
	Settings           Settings   `json:"settings" yaml:"settings"`
	Sections           []Section  `json:"sections" yaml:"sections"`
	Questions          []Question `json:"questions" yaml:"questions"`
	Layout             *Layout    `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// New returns an empty survey carrying the builder defaults and one section.
func New() *Survey {
	s := Defaults()
	s.SurveyID = "CS" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:7])
	s.Sections = []Section{{SectionID: "SEC1", Title: "Section 1", QuestionIDs: []string{}, Required: true}}
	s.Questions = []Question{}
	return s
}

// Defaults returns metadata defaults without id, sections or questions.
func Defaults() *Survey {
	return &Survey{
		Version:            "1.0",
		Title:              "New survey",
		Language:           "ko",
		SupportedLanguages: []Language{"ko"},
		Schedule: Schedule{
			Time:     DateRange{Start: "09:00:00", End: "18:00:00"},
			OffTime:  []OffTime{},
			TimeZone: "Asia/Seoul",
		},
		Settings: Settings{
			AllowAnonymous:    true,
			AllowRevision:     true,
			EstimatedDuration: 10,
			ShowProgress:      true,
		},
	}
}

// Question returns the first question with the given id.
func (s *Survey) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].QuestionID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// SectionOf returns the index of the section holding questionID: the section
// named by the question's sectionId if it lists the id, otherwise the first
// section that lists it. It returns -1 when no section contains it.
func (s *Survey) SectionOf(q *Question) int {
	first := -1
	for i, sec := range s.Sections {
		if IndexOf(sec.QuestionIDs, q.QuestionID) < 0 {
			continue
		}
		if sec.SectionID == q.SectionID {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// IndexOf returns the position of id in ids, or -1.
func IndexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Meta returns a copy of the survey without questions and layout.
func (s *Survey) Meta() *Survey {
	c := s.Clone()
	c.Questions = nil
	c.Layout = nil
	return c
}

// Clone returns a deep copy.
func (s *Survey) Clone() *Survey {
	if s == nil {
		return nil
	}
	c := *s
	c.SupportedLanguages = append([]Language(nil), s.SupportedLanguages...)
	c.Schedule.OffTime = append([]OffTime(nil), s.Schedule.OffTime...)
	c.Sections = CloneSections(s.Sections)
	if s.Questions != nil {
		c.Questions = make([]Question, len(s.Questions))
		for i := range s.Questions {
			c.Questions[i] = *s.Questions[i].Clone()
		}
	}
	if s.Layout != nil {
		l := Layout{
			Nodes: append([]LayoutNode(nil), s.Layout.Nodes...),
			Edges: make([]LayoutEdge, len(s.Layout.Edges)),
		}
		for i, e := range s.Layout.Edges {
			if e.Data != nil {
				d := *e.Data
				e.Data = &d
			}
			l.Edges[i] = e
		}
		c.Layout = &l
	}
	return &c
}

// CloneSections deep-copies a section list.
func CloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, sec := range in {
		sec.QuestionIDs = append([]string{}, sec.QuestionIDs...)
		out[i] = sec
	}
	return out
}

// QuestionNumber parses the numeric part of a "Q<n>" id.
func QuestionNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, "Q") {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// QuestionIDFor formats the n-th question id.
func QuestionIDFor(n int) string { return fmt.Sprintf("Q%d", n) }

// MaxQuestionNumber returns the largest n over "Q<n>" ids in the document.
func (s *Survey) MaxQuestionNumber() int {
	highest := 0
	for _, q := range s.Questions {
		if n, ok := QuestionNumber(q.QuestionID); ok && n > highest {
			highest = n
		}
	}
	return highest
}
