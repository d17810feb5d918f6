// Package attempt implements the test attempt lifecycle: starting a timed
// run, submitting answers with mixed deterministic and AI grading, and
// recruiter review of completed attempts.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recruitly/screener/internal/model"
)

var (
	// ErrNotFound reports a missing attempt, test or applicant.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyInProgress reports a second start for the same applicant and test.
	ErrAlreadyInProgress = errors.New("attempt already in progress")
	// ErrAlreadyCompleted reports a submission to a finished attempt.
	ErrAlreadyCompleted = errors.New("attempt already completed")
	// ErrNotYetCompleted reports a review of an unfinished attempt.
	ErrNotYetCompleted = errors.New("attempt not yet completed")
	// ErrTimeExpired reports a submission past the attempt deadline. The
	// attempt is closed with a zero score before this is returned.
	ErrTimeExpired = errors.New("attempt time expired")
	// ErrInvalidAnswer reports an answer referencing a question outside the
	// attempt's test.
	ErrInvalidAnswer = errors.New("answer does not belong to this test")
)

// Store is the persistence surface the attempt service needs.
type Store interface {
	GetTest(id int64) (*model.Test, error)
	GetQuestionsForTest(testID int64) ([]model.Question, error)
	GetApplicant(id int64) (*model.Applicant, error)
	UpdateApplicantStatus(id int64, status model.ApplicantStatus) error
	GetAttempt(id int64) (*model.Attempt, error)
	GetInProgressAttempt(applicantID, testID int64) (*model.Attempt, error)
	CreateAttempt(a *model.Attempt) error
	CompleteAttempt(id int64, completedAt time.Time, score float64) error
	SaveAnswers(answers []model.Answer) error
	GetAnswersForAttempt(attemptID int64) ([]model.Answer, error)
	SetAnswerCorrect(answerID int64, correct bool) error
}

// Grader scores one open-ended answer. *ai.Service satisfies it.
type Grader interface {
	GradeAnswer(ctx context.Context, question, submitted, canonical string) (model.GradeResult, error)
}

// Submission is one answer in a submit request. IsCorrect is the caller's
// verdict for multiple-choice and true/false questions and is ignored for
// open-ended ones.
type Submission struct {
	QuestionID int64  `json:"question_id"`
	Content    string `json:"content"`
	IsCorrect  *bool  `json:"is_correct,omitempty"`
}

// neutralScore stands in for an AI grade when the provider or the extraction
// fails. One flaky grading call must not sink a whole submission.
const neutralScore = 0.5

// Service drives the attempt state machine.
type Service struct {
	store  Store
	grader Grader
	now    func() time.Time
}

// NewService creates an attempt service.
func NewService(store Store, grader Grader) *Service {
	return &Service{store: store, grader: grader, now: time.Now}
}

// Start opens a new attempt for the applicant on the test. Only one
// uncompleted attempt per (applicant, test) pair may exist.
func (s *Service) Start(ctx context.Context, applicantID, testID int64) (*model.Attempt, error) {
	test, err := s.store.GetTest(testID)
	if err != nil {
		return nil, fmt.Errorf("load test %d: %w", testID, err)
	}
	if test == nil {
		return nil, fmt.Errorf("test %d: %w", testID, ErrNotFound)
	}
	applicant, err := s.store.GetApplicant(applicantID)
	if err != nil {
		return nil, fmt.Errorf("load applicant %d: %w", applicantID, err)
	}
	if applicant == nil {
		return nil, fmt.Errorf("applicant %d: %w", applicantID, ErrNotFound)
	}

	existing, err := s.store.GetInProgressAttempt(applicantID, testID)
	if err != nil {
		return nil, fmt.Errorf("check in-progress attempt: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyInProgress
	}

	attempt := &model.Attempt{
		ApplicantID: applicantID,
		TestID:      testID,
		StartedAt:   s.now(),
	}
	if err := s.store.CreateAttempt(attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	slog.Info("attempt started", "attempt", attempt.ID, "applicant", applicantID, "test", testID)
	return attempt, nil
}

// Submit records answers and finalizes the attempt. Past the deadline the
// attempt is closed with a zero score and ErrTimeExpired is returned; the
// answers are discarded. Open-ended answers are graded through the AI
// service, with a per-answer fallback to a neutral grade on failure.
func (s *Service) Submit(ctx context.Context, attemptID int64, submissions []Submission) (*model.Attempt, error) {
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, fmt.Errorf("load attempt %d: %w", attemptID, err)
	}
	if attempt == nil {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotFound)
	}
	if attempt.CompletedAt != nil {
		return nil, ErrAlreadyCompleted
	}

	test, err := s.store.GetTest(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test %d: %w", attempt.TestID, err)
	}
	if test == nil {
		return nil, fmt.Errorf("test %d: %w", attempt.TestID, ErrNotFound)
	}

	deadline := attempt.Deadline(*test)
	if s.now().After(deadline) {
		if err := s.store.CompleteAttempt(attemptID, deadline, 0); err != nil {
			return nil, fmt.Errorf("close expired attempt: %w", err)
		}
		slog.Info("attempt expired", "attempt", attemptID, "deadline", deadline)
		return nil, ErrTimeExpired
	}

	questions, err := s.store.GetQuestionsForTest(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("load questions for test %d: %w", attempt.TestID, err)
	}
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers := make([]model.Answer, 0, len(submissions))
	for _, sub := range submissions {
		q, ok := byID[sub.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", sub.QuestionID, ErrInvalidAnswer)
		}
		a := model.Answer{
			AttemptID:  attemptID,
			QuestionID: sub.QuestionID,
			Content:    sub.Content,
		}
		if q.Kind == model.KindOpenEnded {
			a.AIScore = s.gradeOpenEnded(ctx, q, sub.Content)
		} else {
			correct := sub.IsCorrect != nil && *sub.IsCorrect
			a.IsCorrect = &correct
		}
		answers = append(answers, a)
	}

	if err := s.store.SaveAnswers(answers); err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}

	score := Compute(questions, answers)
	completedAt := s.now()
	if err := s.store.CompleteAttempt(attemptID, completedAt, score); err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	slog.Info("attempt submitted", "attempt", attemptID, "score", score)

	if score >= test.PassingScore {
		s.advanceApplicant(attempt.ApplicantID)
	}

	attempt.CompletedAt = &completedAt
	attempt.Score = &score
	return attempt, nil
}

// gradeOpenEnded returns a pointer to the AI score for the answer, degrading
// to a neutral grade when the provider call or extraction fails.
func (s *Service) gradeOpenEnded(ctx context.Context, q model.Question, content string) *float64 {
	result, err := s.grader.GradeAnswer(ctx, q.Text, content, q.CorrectAnswer)
	if err != nil {
		slog.Warn("answer grading failed, using neutral score", "question", q.ID, "error", err)
		neutral := neutralScore
		return &neutral
	}
	score := result.Score
	return &score
}

// Review applies recruiter corrections to a completed attempt and
// recomputes its score. Corrections map answer IDs to the corrected
// verdict; untouched answers keep their stored correctness or AI score.
func (s *Service) Review(ctx context.Context, attemptID int64, corrections map[int64]bool) (*model.Attempt, error) {
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		return nil, fmt.Errorf("load attempt %d: %w", attemptID, err)
	}
	if attempt == nil {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotFound)
	}
	if attempt.CompletedAt == nil {
		return nil, ErrNotYetCompleted
	}

	answers, err := s.store.GetAnswersForAttempt(attemptID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	byID := make(map[int64]int, len(answers))
	for i, a := range answers {
		byID[a.ID] = i
	}

	for answerID, correct := range corrections {
		i, ok := byID[answerID]
		if !ok {
			return nil, fmt.Errorf("answer %d: %w", answerID, ErrInvalidAnswer)
		}
		if err := s.store.SetAnswerCorrect(answerID, correct); err != nil {
			return nil, fmt.Errorf("apply correction to answer %d: %w", answerID, err)
		}
		c := correct
		answers[i].IsCorrect = &c
	}

	questions, err := s.store.GetQuestionsForTest(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("load questions for test %d: %w", attempt.TestID, err)
	}
	test, err := s.store.GetTest(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("load test %d: %w", attempt.TestID, err)
	}

	score := Compute(questions, answers)
	if err := s.store.CompleteAttempt(attemptID, *attempt.CompletedAt, score); err != nil {
		return nil, fmt.Errorf("update reviewed score: %w", err)
	}
	slog.Info("attempt reviewed", "attempt", attemptID, "score", score, "corrections", len(corrections))

	if test != nil && score >= test.PassingScore {
		s.advanceApplicant(attempt.ApplicantID)
	}

	attempt.Score = &score
	return attempt, nil
}

// advanceApplicant moves a passing applicant one step along the pipeline.
// Failures are logged, not returned; the attempt result stands either way.
func (s *Service) advanceApplicant(applicantID int64) {
	applicant, err := s.store.GetApplicant(applicantID)
	if err != nil || applicant == nil {
		slog.Warn("cannot advance applicant status", "applicant", applicantID, "error", err)
		return
	}
	var next model.ApplicantStatus
	switch applicant.Status {
	case model.StatusPending:
		next = model.StatusTesting
	case model.StatusTesting:
		next = model.StatusInterview
	default:
		return
	}
	if err := s.store.UpdateApplicantStatus(applicantID, next); err != nil {
		slog.Warn("update applicant status failed", "applicant", applicantID, "status", next, "error", err)
		return
	}
	slog.Info("applicant advanced", "applicant", applicantID, "status", next)
}
