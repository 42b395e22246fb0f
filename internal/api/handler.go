package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/surveyflow/internal/editor"
	"github.com/gyaneshwarpardhi/surveyflow/internal/logging"
	"github.com/gyaneshwarpardhi/surveyflow/internal/navigation"
	"github.com/gyaneshwarpardhi/surveyflow/internal/store"
	"github.com/gyaneshwarpardhi/surveyflow/internal/survey"
)

const maxDocumentBytes = 4 << 20

// Handler holds all HTTP handler dependencies.
type Handler struct {
	session *editor.Session
	store   store.Store
	runs    *runRegistry
	log     *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMaxRuns caps the respondent runs kept in memory; 0 means unbounded.
func WithMaxRuns(n int) Option {
	return func(h *Handler) { h.runs = newRunRegistry(n) }
}

// New creates an HTTP handler and registers all routes.
func New(sess *editor.Session, st store.Store, opts ...Option) http.Handler {
	h := &Handler{
		session: sess,
		store:   st,
		runs:    newRunRegistry(0),
		log:     logging.NewNop(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	// edit session
	h.mux.HandleFunc("GET /v1/editor/graph", h.getGraph)
	h.mux.HandleFunc("GET /v1/editor/report", h.getReport)
	h.mux.HandleFunc("GET /v1/editor/document", h.getDocument)
	h.mux.HandleFunc("POST /v1/editor/new", h.newSurvey)
	h.mux.HandleFunc("POST /v1/editor/load", h.loadDocument)
	h.mux.HandleFunc("POST /v1/editor/open/{surveyId}", h.openSurvey)
	h.mux.HandleFunc("POST /v1/editor/questions", h.addQuestion)
	h.mux.HandleFunc("PATCH /v1/editor/questions/{id}", h.updateQuestion)
	h.mux.HandleFunc("DELETE /v1/editor/nodes/{id}", h.deleteNode)
	h.mux.HandleFunc("PUT /v1/editor/nodes/{id}/position", h.moveNode)
	h.mux.HandleFunc("POST /v1/editor/edges", h.addEdge)
	h.mux.HandleFunc("DELETE /v1/editor/edges/{id}", h.deleteEdge)
	h.mux.HandleFunc("POST /v1/editor/edges/{id}/insert", h.insertBetween)
	h.mux.HandleFunc("POST /v1/editor/sections", h.addSection)
	h.mux.HandleFunc("PATCH /v1/editor/sections/{id}", h.updateSection)
	h.mux.HandleFunc("DELETE /v1/editor/sections/{id}", h.deleteSection)
	h.mux.HandleFunc("PATCH /v1/editor/meta", h.updateMeta)
	h.mux.HandleFunc("POST /v1/editor/export", h.export)

	// stored documents
	h.mux.HandleFunc("GET /v1/surveys", h.listSurveys)
	h.mux.HandleFunc("GET /v1/surveys/{surveyId}", h.getSurvey)
	h.mux.HandleFunc("DELETE /v1/surveys/{surveyId}", h.deleteSurvey)

	// survey taking
	h.mux.HandleFunc("POST /v1/navigate", h.navigate)
	h.mux.HandleFunc("POST /v1/answers/validate", h.validateAnswer)
	h.mux.HandleFunc("POST /v1/runs", h.startRun)
	h.mux.HandleFunc("GET /v1/runs/{runId}", h.getRun)
	h.mux.HandleFunc("DELETE /v1/runs/{runId}", h.deleteRun)
	h.mux.HandleFunc("POST /v1/runs/{runId}/answer", h.answerRun)
	h.mux.HandleFunc("POST /v1/runs/{runId}/next", h.nextRun)
	h.mux.HandleFunc("POST /v1/runs/{runId}/prev", h.prevRun)
	h.mux.HandleFunc("POST /v1/runs/{runId}/reset", h.resetRun)

	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.log, h.mux)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return false
	}
	return true
}

// mutationResponse is returned by every editing call.
type mutationResponse struct {
	ID     string     `json:"id,omitempty"`
	Report reportView `json:"report"`
}

func (h *Handler) mutated(w http.ResponseWriter, status int, id string) {
	writeJSON(w, status, mutationResponse{ID: id, Report: newReportView(h.session.Report())})
}

// GET /v1/editor/graph: the editing graph plus diagnostics.
func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"graph":  h.session.Graph(),
		"report": newReportView(h.session.Report()),
		"dirty":  h.session.Dirty(),
	})
}

// GET /v1/editor/report
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newReportView(h.session.Report()))
}

// GET /v1/editor/document: compiled document, not gated on the validator.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Document())
}

// POST /v1/editor/new
func (h *Handler) newSurvey(w http.ResponseWriter, r *http.Request) {
	h.session.Create()
	h.mutated(w, http.StatusCreated, h.session.Meta().SurveyID)
}

// POST /v1/editor/load: body is a JSON document, or YAML with
// Content-Type application/yaml.
func (h *Handler) loadDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := "upload.json"
	switch r.Header.Get("Content-Type") {
	case "application/yaml", "application/x-yaml", "text/yaml":
		name = "upload.yaml"
	}
	doc, err := store.DecodeDocument(name, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.session.Load(doc)
	h.mutated(w, http.StatusOK, doc.SurveyID)
}

// POST /v1/editor/open/{surveyId}: load a stored document into the editor.
func (h *Handler) openSurvey(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load(r.Context(), r.PathValue("surveyId"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.session.Load(doc)
	h.mutated(w, http.StatusOK, doc.SurveyID)
}

type addQuestionRequest struct {
	Type     survey.QuestionType `json:"type"`
	Position survey.Position     `json:"position"`
}

// POST /v1/editor/questions
func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req addQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.session.AddQuestionNode(req.Type, req.Position)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusCreated, id)
}

// PATCH /v1/editor/questions/{id}
func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch survey.QuestionPatch
	if !decode(w, r, &patch) {
		return
	}
	id := r.PathValue("id")
	if err := h.session.UpdateQuestion(id, patch); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, id)
}

// DELETE /v1/editor/nodes/{id}
func (h *Handler) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.session.DeleteNode(id); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, id)
}

// PUT /v1/editor/nodes/{id}/position
func (h *Handler) moveNode(w http.ResponseWriter, r *http.Request) {
	var pos survey.Position
	if !decode(w, r, &pos) {
		return
	}
	id := r.PathValue("id")
	if err := h.session.MoveNode(id, pos); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, id)
}

type addEdgeRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
	Condition    string `json:"condition"`
}

// POST /v1/editor/edges
func (h *Handler) addEdge(w http.ResponseWriter, r *http.Request) {
	var req addEdgeRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := h.session.AddEdge(req.Source, req.Target, req.SourceHandle, req.TargetHandle, req.Condition)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusCreated, e.ID)
}

// DELETE /v1/editor/edges/{id}
func (h *Handler) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.session.DeleteEdge(id); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, id)
}

// POST /v1/editor/edges/{id}/insert
func (h *Handler) insertBetween(w http.ResponseWriter, r *http.Request) {
	var req addQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.session.InsertBetween(r.PathValue("id"), req.Type)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusCreated, id)
}

// POST /v1/editor/sections
func (h *Handler) addSection(w http.ResponseWriter, r *http.Request) {
	var sec survey.Section
	if !decode(w, r, &sec) {
		return
	}
	id, err := h.session.AddSection(sec)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusCreated, id)
}

// PATCH /v1/editor/sections/{id}
func (h *Handler) updateSection(w http.ResponseWriter, r *http.Request) {
	var patch editor.SectionPatch
	if !decode(w, r, &patch) {
		return
	}
	id := r.PathValue("id")
	if err := h.session.UpdateSection(id, patch); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, id)
}

// DELETE /v1/editor/sections/{id}
func (h *Handler) deleteSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.session.DeleteSection(id); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, id)
}

// PATCH /v1/editor/meta
func (h *Handler) updateMeta(w http.ResponseWriter, r *http.Request) {
	var patch editor.MetaPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := h.session.UpdateMeta(patch); err != nil {
		writeFailure(w, err)
		return
	}
	h.mutated(w, http.StatusOK, "")
}

// POST /v1/editor/export: full validation, then save. 422 with the report
// when blocked.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.session.Export()
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.store.Save(r.Context(), doc); err != nil {
		h.log.Error("save exported survey", "survey_id", doc.SurveyID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GET /v1/surveys
func (h *Handler) listSurveys(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": ids})
}

// GET /v1/surveys/{surveyId}
func (h *Handler) getSurvey(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load(r.Context(), r.PathValue("surveyId"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DELETE /v1/surveys/{surveyId}
func (h *Handler) deleteSurvey(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("surveyId")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// documentRef names a stored survey or carries one inline.
type documentRef struct {
	SurveyID string         `json:"surveyId"`
	Document *survey.Survey `json:"document"`
}

func (h *Handler) resolve(r *http.Request, ref documentRef) (*survey.Survey, error) {
	if ref.Document != nil {
		return ref.Document, nil
	}
	return h.store.Load(r.Context(), ref.SurveyID)
}

type navigateRequest struct {
	documentRef
	CurrentQuestionID string                 `json:"currentQuestionId"`
	Answers           map[string]interface{} `json:"answers"`
}

// POST /v1/navigate: stateless GetNext.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !decode(w, r, &req) {
		return
	}
	doc, err := h.resolve(r, req.documentRef)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, navigation.GetNext(doc, req.CurrentQuestionID, req.Answers))
}

type validateRequest struct {
	documentRef
	QuestionID string      `json:"questionId"`
	Answer     interface{} `json:"answer"`
}

// POST /v1/answers/validate
func (h *Handler) validateAnswer(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decode(w, r, &req) {
		return
	}
	doc, err := h.resolve(r, req.documentRef)
	if err != nil {
		writeFailure(w, err)
		return
	}
	q, ok := doc.Question(req.QuestionID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("question %s not found", req.QuestionID))
		return
	}
	writeJSON(w, http.StatusOK, navigation.ValidateAnswer(q, req.Answer))
}

// POST /v1/runs
func (h *Handler) startRun(w http.ResponseWriter, r *http.Request) {
	var ref documentRef
	if !decode(w, r, &ref) {
		return
	}
	doc, err := h.resolve(r, ref)
	if err != nil {
		writeFailure(w, err)
		return
	}
	rn, err := h.runs.start(doc)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.log.Info("run started", "run_id", rn.id, "survey_id", rn.surveyID)
	writeJSON(w, http.StatusCreated, rn.view())
}

// withRun resolves {runId} and runs fn under the run's lock.
func (h *Handler) withRun(w http.ResponseWriter, r *http.Request, fn func(rn *run)) {
	rn, err := h.runs.get(r.PathValue("runId"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	rn.mu.Lock()
	defer rn.mu.Unlock()
	fn(rn)
}

// GET /v1/runs/{runId}
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	h.withRun(w, r, func(rn *run) {
		writeJSON(w, http.StatusOK, rn.view())
	})
}

// DELETE /v1/runs/{runId}
func (h *Handler) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.runs.remove(r.PathValue("runId")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type answerRequest struct {
	Answer interface{} `json:"answer"`
}

// POST /v1/runs/{runId}/answer: record the answer to the current question.
func (h *Handler) answerRun(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	h.withRun(w, r, func(rn *run) {
		if !rn.runner.SetAnswer(req.Answer) {
			writeError(w, http.StatusConflict, "run is completed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"verdict": rn.runner.ValidateCurrent(),
			"run":     rn.view(),
		})
	})
}

// POST /v1/runs/{runId}/next
func (h *Handler) nextRun(w http.ResponseWriter, r *http.Request) {
	h.withRun(w, r, func(rn *run) {
		step, verdict := rn.runner.Next()
		status := http.StatusOK
		if !verdict.Valid {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]interface{}{
			"step":    step,
			"verdict": verdict,
			"run":     rn.view(),
		})
	})
}

// POST /v1/runs/{runId}/prev
func (h *Handler) prevRun(w http.ResponseWriter, r *http.Request) {
	h.withRun(w, r, func(rn *run) {
		if !rn.runner.Prev() {
			writeError(w, http.StatusConflict, "no previous question")
			return
		}
		writeJSON(w, http.StatusOK, rn.view())
	})
}

// POST /v1/runs/{runId}/reset
func (h *Handler) resetRun(w http.ResponseWriter, r *http.Request) {
	h.withRun(w, r, func(rn *run) {
		rn.runner.Reset()
		writeJSON(w, http.StatusOK, rn.view())
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
