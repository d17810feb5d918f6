package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// TaskKind identifies what a generation task asks the AI provider to do.
type TaskKind string

const (
	// TaskQuestionGen generates assessment questions for a topic.
	TaskQuestionGen TaskKind = "question_gen"
	// TaskCVScore evaluates a CV against a job description.
	TaskCVScore TaskKind = "cv_score"
	// TaskAnswerGrade grades a free-text answer against a canonical one.
	TaskAnswerGrade TaskKind = "answer_grade"
	// TaskSentiment classifies the sentiment of a text.
	TaskSentiment TaskKind = "sentiment"
	// TaskPlagiarism compares two texts for similarity.
	TaskPlagiarism TaskKind = "plagiarism"
)

// GenerationTask describes one request to the AI provider: a kind plus the
// named inputs the prompt template needs.
type GenerationTask struct {
	Kind   TaskKind
	Inputs map[string]string
}

// Key returns the canonical cache key for the task. Input values are trimmed
// and keys visited in sorted order, so two tasks differing only in whitespace
// or map iteration order produce the same key.
func (t GenerationTask) Key() string {
	keys := make([]string, 0, len(t.Inputs))
	for k := range t.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(t.Kind))
	for _, k := range keys {
		b.WriteByte('\x1f')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(t.Inputs[k]))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// QuestionKind represents the answer format of a question.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindOpenEnded      QuestionKind = "open_ended"
	KindTrueFalse      QuestionKind = "true_false"
)

// ApplicantStatus tracks an applicant through the hiring pipeline.
type ApplicantStatus string

const (
	StatusPending   ApplicantStatus = "pending"
	StatusTesting   ApplicantStatus = "testing"
	StatusInterview ApplicantStatus = "interview"
	StatusHired     ApplicantStatus = "hired"
	StatusRejected  ApplicantStatus = "rejected"
)

// Applicant represents a candidate in the pipeline.
type Applicant struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Status    ApplicantStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Test represents an assessment a candidate can take.
type Test struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	PassingScore    float64 `json:"passing_score"`
	Difficulty      int     `json:"difficulty"`
}

// Question represents a single question belonging to a test.
type Question struct {
	ID            int64        `json:"id"`
	TestID        int64        `json:"test_id"`
	Text          string       `json:"text"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Kind          QuestionKind `json:"kind"`
	PointValue    float64      `json:"point_value"`
	AIGenerated   bool         `json:"ai_generated"`
}

// Attempt represents one candidate's run at a test. CompletedAt and Score are
// set together when the attempt finishes; at most one attempt per
// (applicant, test) pair may have a nil CompletedAt.
type Attempt struct {
	ID          int64      `json:"id"`
	ApplicantID int64      `json:"applicant_id"`
	TestID      int64      `json:"test_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       *float64   `json:"score,omitempty"`
}

// Deadline returns the instant the attempt's time window closes.
func (a Attempt) Deadline(t Test) time.Time {
	return a.StartedAt.Add(time.Duration(t.DurationMinutes) * time.Minute)
}

// Answer represents a submitted answer within an attempt. IsCorrect is set
// for multiple-choice and true/false answers; AIScore for open-ended ones.
type Answer struct {
	ID         int64    `json:"id"`
	AttemptID  int64    `json:"attempt_id"`
	QuestionID int64    `json:"question_id"`
	Content    string   `json:"content"`
	IsCorrect  *bool    `json:"is_correct,omitempty"`
	AIScore    *float64 `json:"ai_score,omitempty"`
}

// GradeResult is the outcome of grading one open-ended answer.
type GradeResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Sentiment labels returned by sentiment analysis.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentResult is the outcome of sentiment analysis on a text.
type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

// PlagiarismResult is the outcome of comparing two texts.
type PlagiarismResult struct {
	SimilarityPercentage float64 `json:"similarity_percentage"`
	Analysis             string  `json:"analysis"`
}

// CVAnalysis holds the category scores and narrative from evaluating a CV
// against a job description. Category scores are in [0,1].
type CVAnalysis struct {
	Relevance       float64 `json:"relevance"`
	TechnicalSkills float64 `json:"technical_skills"`
	Experience      float64 `json:"experience"`
	Education       float64 `json:"education"`
	Strengths       string  `json:"strengths"`
	Weaknesses      string  `json:"weaknesses"`
	FullAnalysis    string  `json:"full_analysis"`
}

// OverallScore is the weighted aggregate used to rank CVs.
func (c CVAnalysis) OverallScore() float64 {
	return 0.35*c.Relevance + 0.30*c.TechnicalSkills + 0.20*c.Experience + 0.15*c.Education
}
