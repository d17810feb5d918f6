package handler

import (
	"encoding/json"
	"net/http"

	"github.com/recruitly/screener/internal/i18n"
	"github.com/recruitly/screener/internal/model"
)

// aiQuestionPoints is the point value assigned to generated questions.
const aiQuestionPoints = 10

type generateQuestionsRequest struct {
	Topic      string             `json:"topic"`
	Count      int                `json:"count"`
	Difficulty int                `json:"difficulty"`
	Kind       model.QuestionKind `json:"kind,omitempty"`
}

func (h *Handler) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	testID, err := urlID(r, "testID")
	if err != nil {
		badRequest(w, r)
		return
	}
	var req generateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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
	if req.Difficulty == 0 {
		req.Difficulty = test.Difficulty
	}

	questions, err := h.ai.GenerateQuestions(r.Context(), req.Topic, req.Count, req.Difficulty, req.Kind)
	if err != nil {
		respondError(w, r, err)
		return
	}

	for i := range questions {
		questions[i].TestID = testID
		questions[i].PointValue = aiQuestionPoints
		if err := h.store.InsertQuestion(&questions[i]); err != nil {
			respondError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusCreated, questions)
}

type gradeRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Expected string `json:"expected"`
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r)
		return
	}

	result, err := h.ai.GradeAnswer(r.Context(), req.Question, req.Answer, req.Expected)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type scoreCVRequest struct {
	CV             string `json:"cv"`
	JobDescription string `json:"job_description"`
}

func (h *Handler) handleScoreCV(w http.ResponseWriter, r *http.Request) {
	var req scoreCVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r)
		return
	}

	analysis, err := h.ai.ScoreCV(r.Context(), req.CV, req.JobDescription)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		model.CVAnalysis
		OverallScore float64 `json:"overall_score"`
	}{analysis, analysis.OverallScore()})
}

type sentimentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r)
		return
	}

	result, err := h.ai.AnalyzeSentiment(r.Context(), req.Text)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type plagiarismRequest struct {
	Original   string `json:"original"`
	Comparison string `json:"comparison"`
}

func (h *Handler) handlePlagiarism(w http.ResponseWriter, r *http.Request) {
	var req plagiarismRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r)
		return
	}

	result, err := h.ai.DetectPlagiarism(r.Context(), req.Original, req.Comparison)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
