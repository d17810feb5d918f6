// Package handler exposes the assessment pipeline as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/recruitly/screener/internal/ai"
	"github.com/recruitly/screener/internal/ai/prompts"
	"github.com/recruitly/screener/internal/attempt"
	"github.com/recruitly/screener/internal/i18n"
	"github.com/recruitly/screener/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	ai       *ai.Service
	attempts *attempt.Service
}

// New creates a new Handler.
func New(s *store.Store, svc *ai.Service, attempts *attempt.Service) *Handler {
	return &Handler{store: s, ai: svc, attempts: attempts}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/applicants", h.handleCreateApplicant)
	r.Get("/applicants", h.handleListApplicants)
	r.Post("/tests", h.handleCreateTest)
	r.Get("/tests", h.handleListTests)
	r.Get("/tests/{testID}/questions", h.handleListQuestions)
	r.Post("/tests/{testID}/questions/generate", h.handleGenerateQuestions)

	r.Post("/attempts", h.handleStartAttempt)
	r.Get("/attempts/{attemptID}", h.handleGetAttempt)
	r.Post("/attempts/{attemptID}/submit", h.handleSubmitAttempt)
	r.Post("/attempts/{attemptID}/review", h.handleReviewAttempt)

	r.Post("/grade", h.handleGrade)
	r.Post("/cv/score", h.handleScoreCV)
	r.Post("/sentiment", h.handleSentiment)
	r.Post("/plagiarism", h.handlePlagiarism)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps a service error to an HTTP status and a localized
// message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var status int
	var msgID, code string
	switch {
	case errors.Is(err, attempt.ErrAlreadyInProgress):
		status, msgID, code = http.StatusConflict, "ErrorAttemptInProgress", "already_in_progress"
	case errors.Is(err, attempt.ErrAlreadyCompleted):
		status, msgID, code = http.StatusConflict, "ErrorAttemptCompleted", "already_completed"
	case errors.Is(err, attempt.ErrNotYetCompleted):
		status, msgID, code = http.StatusConflict, "ErrorAttemptNotCompleted", "not_yet_completed"
	case errors.Is(err, attempt.ErrTimeExpired):
		status, msgID, code = http.StatusConflict, "ErrorTimeExpired", "time_expired"
	case errors.Is(err, attempt.ErrInvalidAnswer):
		status, msgID, code = http.StatusBadRequest, "ErrorInvalidAnswer", "invalid_answer"
	case errors.Is(err, attempt.ErrNotFound):
		status, msgID, code = http.StatusNotFound, "ErrorAttemptNotFound", "not_found"
	case errors.Is(err, prompts.ErrInvalidTask):
		status, msgID, code = http.StatusBadRequest, "ErrorInvalidRequest", "invalid_request"
	case ai.IsTransient(err):
		status, msgID, code = http.StatusServiceUnavailable, "ErrorAIUnavailable", "ai_unavailable"
	case isUpstream(err):
		status, msgID, code = http.StatusBadGateway, "ErrorAIRejected", "ai_rejected"
	default:
		status, msgID, code = http.StatusInternalServerError, "ErrorInternal", "internal"
	}

	if status >= 500 {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Info("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	respondJSON(w, status, errorResponse{Error: i18n.T(ctx, msgID), Code: code})
}

func isUpstream(err error) bool {
	var ue *ai.UpstreamError
	return errors.As(err, &ue)
}

func badRequest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Error: i18n.T(r.Context(), "ErrorInvalidRequest"),
		Code:  "invalid_request",
	})
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
