package handler

import (
	"encoding/json"
	"net/http"

	"github.com/recruitly/screener/internal/attempt"
	"github.com/recruitly/screener/internal/i18n"
	"github.com/recruitly/screener/internal/model"
)

type startAttemptRequest struct {
	ApplicantID int64 `json:"applicant_id"`
	TestID      int64 `json:"test_id"`
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ApplicantID == 0 || req.TestID == 0 {
		badRequest(w, r)
		return
	}

	a, err := h.attempts.Start(r.Context(), req.ApplicantID, req.TestID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "attemptID")
	if err != nil {
		badRequest(w, r)
		return
	}

	a, err := h.store.GetAttempt(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if a == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{
			Error: i18n.T(r.Context(), "ErrorAttemptNotFound"),
			Code:  "not_found",
		})
		return
	}

	answers, err := h.store.GetAnswersForAttempt(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		*model.Attempt
		Answers []model.Answer `json:"answers"`
	}{a, answers})
}

type submitAttemptRequest struct {
	Answers []attempt.Submission `json:"answers"`
}

func (h *Handler) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "attemptID")
	if err != nil {
		badRequest(w, r)
		return
	}
	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r)
		return
	}

	a, err := h.attempts.Submit(r.Context(), id, req.Answers)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type reviewAttemptRequest struct {
	// Corrections maps answer IDs to the recruiter's verdict. Answers not
	// listed keep their stored result.
	Corrections map[int64]bool `json:"corrections"`
}

func (h *Handler) handleReviewAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "attemptID")
	if err != nil {
		badRequest(w, r)
		return
	}
	var req reviewAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r)
		return
	}

	a, err := h.attempts.Review(r.Context(), id, req.Corrections)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
