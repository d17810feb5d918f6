package store

import (
	"fmt"

	"github.com/recruitly/screener/internal/model"
)

// ExportAllAttempts builds export-ready attempt results across all
// applicants, flattened with question detail for offline analysis.
func (s *Store) ExportAllAttempts() ([]model.AttemptResult, error) {
	attempts, err := s.ListAttempts()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	var results []model.AttemptResult
	for _, at := range attempts {
		applicant, err := s.GetApplicant(at.ApplicantID)
		if err != nil {
			return nil, fmt.Errorf("get applicant %d: %w", at.ApplicantID, err)
		}
		test, err := s.GetTest(at.TestID)
		if err != nil {
			return nil, fmt.Errorf("get test %d: %w", at.TestID, err)
		}

		questions, err := s.GetQuestionsForTest(at.TestID)
		if err != nil {
			return nil, fmt.Errorf("get questions for test %d: %w", at.TestID, err)
		}
		questionsByID := make(map[int64]model.Question, len(questions))
		for _, q := range questions {
			questionsByID[q.ID] = q
		}

		answers, err := s.GetAnswersForAttempt(at.ID)
		if err != nil {
			return nil, fmt.Errorf("get answers for attempt %d: %w", at.ID, err)
		}

		var answerResults []model.AnswerResult
		for _, a := range answers {
			q := questionsByID[a.QuestionID]
			answerResults = append(answerResults, model.AnswerResult{
				QuestionText: q.Text,
				Kind:         q.Kind,
				PointValue:   q.PointValue,
				Content:      a.Content,
				IsCorrect:    a.IsCorrect,
				AIScore:      a.AIScore,
			})
		}

		result := model.AttemptResult{
			StartedAt:   at.StartedAt,
			CompletedAt: at.CompletedAt,
			Score:       at.Score,
			Answers:     answerResults,
		}
		if applicant != nil {
			result.ApplicantName = applicant.Name
			result.ApplicantEmail = applicant.Email
			result.Status = applicant.Status
		}
		if test != nil {
			result.TestTitle = test.Title
			result.PassingScore = test.PassingScore
		}
		results = append(results, result)
	}

	return results, nil
}
