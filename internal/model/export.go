package model

import "time"

// AnswerResult is one answer in an exported attempt.
type AnswerResult struct {
	QuestionText string       `json:"question_text"`
	Kind         QuestionKind `json:"kind"`
	PointValue   float64      `json:"point_value"`
	Content      string       `json:"content"`
	IsCorrect    *bool        `json:"is_correct,omitempty"`
	AIScore      *float64     `json:"ai_score,omitempty"`
}

// AttemptResult is one attempt in the export, flattened with applicant and
// test details for offline analysis.
type AttemptResult struct {
	ApplicantName  string          `json:"applicant_name"`
	ApplicantEmail string          `json:"applicant_email"`
	Status         ApplicantStatus `json:"applicant_status"`
	TestTitle      string          `json:"test_title"`
	PassingScore   float64         `json:"passing_score"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Score          *float64        `json:"score,omitempty"`
	Answers        []AnswerResult  `json:"answers"`
}
