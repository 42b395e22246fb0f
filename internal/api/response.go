package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gyaneshwarpardhi/surveyflow/internal/editor"
	"github.com/gyaneshwarpardhi/surveyflow/internal/graph"
	"github.com/gyaneshwarpardhi/surveyflow/internal/store"
	"github.com/gyaneshwarpardhi/surveyflow/internal/validator"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps a domain error to a status code.
func writeFailure(w http.ResponseWriter, err error) {
	var blocked *editor.ExportBlockedError
	switch {
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  err.Error(),
			"report": newReportView(blocked.Report),
		})
	case errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, graph.ErrEdgeNotFound),
		errors.Is(err, editor.ErrSectionNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, errRunNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, graph.ErrDuplicateNode),
		errors.Is(err, editor.ErrDuplicateSection),
		errors.Is(err, editor.ErrImmutableID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errTooManyRuns):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

// reportView is a validator report with counts for export gating.
type reportView struct {
	Strictness  validator.Strictness   `json:"strictness"`
	Errors      int                    `json:"errors"`
	Warnings    int                    `json:"warnings"`
	Diagnostics []validator.Diagnostic `json:"diagnostics"`
}

func newReportView(r validator.Report) reportView {
	v := reportView{
		Strictness:  r.Strictness,
		Errors:      len(r.Errors()),
		Warnings:    len(r.Warnings()),
		Diagnostics: r.Diagnostics,
	}
	if v.Diagnostics == nil {
		v.Diagnostics = []validator.Diagnostic{}
	}
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}
