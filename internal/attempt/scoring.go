package attempt

import "github.com/recruitly/screener/internal/model"

// Compute aggregates a final percentage score for an attempt. The
// denominator covers every question on the test, so unanswered questions
// count against the candidate. An answer with explicit correctness earns the
// full point value or nothing; otherwise an AI score scales the point value.
// A test with no points scores 0.
func Compute(questions []model.Question, answers []model.Answer) float64 {
	var total float64
	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		total += q.PointValue
		byID[q.ID] = q
	}
	if total == 0 {
		return 0
	}

	var earned float64
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		switch {
		case a.IsCorrect != nil:
			if *a.IsCorrect {
				earned += q.PointValue
			}
		case a.AIScore != nil:
			earned += q.PointValue * *a.AIScore
		}
	}
	return earned / total * 100
}
