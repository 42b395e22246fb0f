package editor

import (
	"fmt"

	"github.com/gyaneshwarpardhi/surveyflow/internal/metrics"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
	"github.com/gyaneshwarpardhi/surveyflow/internal/validator"
)

// ExportBlockedError is returned by Export when the full validator reports
// errors. Report holds every diagnostic of that run, warnings included.
type ExportBlockedError struct {
	Report validator.Report
}

func (e *ExportBlockedError) Error() string {
	errs := e.Report.Errors()
	if len(errs) == 1 {
		return fmt.Sprintf("export blocked: %s", errs[0])
	}
	return fmt.Sprintf("export blocked: %d structural errors", len(errs))
}

// Export runs the full validator and compiles the document when it reports no
// errors. Warnings never block.
func (s *Session) Export() (*survey.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := runValidator(s.g, validator.Full)
	if rep.HasErrors() {
		metrics.ExportsBlocked.Inc()
		s.log.Warn("export blocked", "survey_id", s.meta.SurveyID, "errors", len(rep.Errors()))
		return nil, &ExportBlockedError{Report: rep}
	}
	doc := s.transformer.GraphToDocument(s.g, s.meta)
	s.dirty = false
	metrics.ExportsCompleted.Inc()
	s.log.Info("survey exported",
		"survey_id", doc.SurveyID,
		"questions", len(doc.Questions),
		"warnings", len(rep.Warnings()),
	)
	return doc, nil
}
