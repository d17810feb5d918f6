package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recruitly/screener/internal/ai/prompts"
	"github.com/recruitly/screener/internal/model"
)

// Generator is the outbound call a Service needs. *Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

const (
	maxQuestionsPerRequest = 10
	defaultCallTimeout     = 60 * time.Second
)

// Service runs the assessment pipeline: prompt construction, cached provider
// calls, and defensive extraction of typed results.
type Service struct {
	gen     Generator
	cache   *Cache
	timeout time.Duration
}

// NewService wires a service. A zero timeout falls back to the 60s default.
func NewService(gen Generator, cache *Cache, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Service{gen: gen, cache: cache, timeout: timeout}
}

// run resolves a task through the cache, building its prompt and calling the
// provider on a miss.
func (s *Service) run(ctx context.Context, task model.GenerationTask) (string, error) {
	prompt, err := prompts.Build(task)
	if err != nil {
		return "", err
	}
	return s.cache.GetOrCompute(ctx, task, func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.gen.Generate(ctx, prompt, ParamsFor(task.Kind))
	})
}

// GenerateQuestions produces exactly count questions on the topic. Count must
// be between 1 and 10; kind may be empty to let the provider mix formats.
func (s *Service) GenerateQuestions(ctx context.Context, topic string, count, difficulty int, kind model.QuestionKind) ([]model.Question, error) {
	if count < 1 || count > maxQuestionsPerRequest {
		return nil, fmt.Errorf("%w: count %d out of range [1,%d]", prompts.ErrInvalidTask, count, maxQuestionsPerRequest)
	}
	task := prompts.QuestionGenTask(topic, count, difficulty, kind)
	raw, err := s.run(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := ExtractQuestions(raw, count, topic)
	for i := range questions {
		if kind != "" {
			questions[i].Kind = kind
		}
		questions[i].AIGenerated = true
	}
	return questions, nil
}

// GradeAnswer scores a free-text answer against the canonical one. The score
// is in [0,1]; malformed provider output degrades to the neutral 0.5.
func (s *Service) GradeAnswer(ctx context.Context, question, submitted, canonical string) (model.GradeResult, error) {
	task := prompts.GradeTask(question, submitted, canonical)
	raw, err := s.run(ctx, task)
	if err != nil {
		return model.GradeResult{}, fmt.Errorf("grade answer: %w", err)
	}
	return ExtractGrade(raw), nil
}

// ScoreCV evaluates a CV against a job description. Category labels match
// the prompt template; a label the provider dropped scores the neutral 0.5.
func (s *Service) ScoreCV(ctx context.Context, cv, jobDescription string) (model.CVAnalysis, error) {
	task := prompts.CVScoreTask(cv, jobDescription)
	raw, err := s.run(ctx, task)
	if err != nil {
		return model.CVAnalysis{}, fmt.Errorf("score cv: %w", err)
	}
	analysis := model.CVAnalysis{
		Relevance:       ExtractScore(raw, "Relevancia"),
		TechnicalSkills: ExtractScore(raw, "Habilidades técnicas"),
		Experience:      ExtractScore(raw, "Experiencia"),
		Education:       ExtractScore(raw, "Educación"),
		Strengths:       ExtractSection(raw, "Fortalezas"),
		Weaknesses:      ExtractSection(raw, "Debilidades"),
		FullAnalysis:    raw,
	}
	slog.Debug("cv scored", "overall", analysis.OverallScore())
	return analysis, nil
}

// AnalyzeSentiment classifies the sentiment of a text.
func (s *Service) AnalyzeSentiment(ctx context.Context, text string) (model.SentimentResult, error) {
	task := prompts.SentimentTask(text)
	raw, err := s.run(ctx, task)
	if err != nil {
		return model.SentimentResult{}, fmt.Errorf("analyze sentiment: %w", err)
	}
	return ExtractSentiment(raw), nil
}

// DetectPlagiarism compares two texts for similarity.
func (s *Service) DetectPlagiarism(ctx context.Context, original, comparison string) (model.PlagiarismResult, error) {
	task := prompts.PlagiarismTask(original, comparison)
	raw, err := s.run(ctx, task)
	if err != nil {
		return model.PlagiarismResult{}, fmt.Errorf("detect plagiarism: %w", err)
	}
	return ExtractSimilarity(raw), nil
}
