package handler

import (
	"encoding/json"
	"net/http"

	"github.com/recruitly/screener/internal/i18n"
	"github.com/recruitly/screener/internal/model"
)

type createApplicantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) handleCreateApplicant(w http.ResponseWriter, r *http.Request) {
	var req createApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Email == "" {
		badRequest(w, r)
		return
	}

	applicant := model.Applicant{Name: req.Name, Email: req.Email}
	if err := h.store.CreateApplicant(&applicant); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, applicant)
}

func (h *Handler) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	applicants, err := h.store.ListApplicants()
	if err != nil {
		respondError(w, r, err)
		return
	}
	if applicants == nil {
		applicants = []model.Applicant{}
	}
	respondJSON(w, http.StatusOK, applicants)
}

type createTestRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	PassingScore    float64 `json:"passing_score"`
	Difficulty      int     `json:"difficulty"`
}

func (h *Handler) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.DurationMinutes <= 0 {
		badRequest(w, r)
		return
	}

	test := model.Test{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PassingScore:    req.PassingScore,
		Difficulty:      req.Difficulty,
	}
	if err := h.store.CreateTest(&test); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, test)
}

func (h *Handler) handleListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.store.ListTests()
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tests == nil {
		tests = []model.Test{}
	}
	respondJSON(w, http.StatusOK, tests)
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	testID, err := urlID(r, "testID")
	if err != nil {
		badRequest(w, r)
		return
	}
	test, err := h.store.GetTest(testID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if test == nil {
		respondJSON(w, http.StatusNotFound, errorResponse{
			Error: i18n.T(r.Context(), "ErrorTestNotFound"),
			Code:  "not_found",
		})
		return
	}

	questions, err := h.store.GetQuestionsForTest(testID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}
