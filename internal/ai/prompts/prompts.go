package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/recruitly/screener/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

// ErrInvalidTask reports a task with an unknown kind or a missing input.
var ErrInvalidTask = errors.New("invalid generation task")

// requiredInputs lists the template inputs each task kind must provide.
var requiredInputs = map[model.TaskKind][]string{
	model.TaskQuestionGen: {"topic", "count", "difficulty"},
	model.TaskCVScore:     {"cv", "job_description"},
	model.TaskAnswerGrade: {"question", "answer", "expected"},
	model.TaskSentiment:   {"text"},
	model.TaskPlagiarism:  {"original", "comparison"},
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[model.TaskKind]*template.Template
)

// load parses all embedded templates once.
func load() error {
	loadOnce.Do(func() {
		templates = make(map[model.TaskKind]*template.Template)
		for kind := range requiredInputs {
			name := "templates/" + string(kind) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt template %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(kind)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[kind] = tmpl
		}
	})
	return loadErr
}

// Build renders the prompt for a generation task. It returns ErrInvalidTask
// (wrapped with detail) when the kind is unknown or a required input is
// missing or blank.
func Build(task model.GenerationTask) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[task.Kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidTask, task.Kind)
	}

	data := make(map[string]string, len(task.Inputs))
	for k, v := range task.Inputs {
		data[k] = sanitizeInput(v)
	}
	for _, key := range requiredInputs[task.Kind] {
		if strings.TrimSpace(data[key]) == "" {
			return "", fmt.Errorf("%w: missing input %q for kind %q", ErrInvalidTask, key, task.Kind)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt for %s: %w", task.Kind, err)
	}
	return buf.String(), nil
}

// QuestionGenTask builds a validated question-generation task.
func QuestionGenTask(topic string, count, difficulty int, kind model.QuestionKind) model.GenerationTask {
	return model.GenerationTask{
		Kind: model.TaskQuestionGen,
		Inputs: map[string]string{
			"topic":      topic,
			"count":      strconv.Itoa(count),
			"difficulty": strconv.Itoa(difficulty),
			"kind":       string(kind),
		},
	}
}

// GradeTask builds an answer-grading task.
func GradeTask(question, answer, expected string) model.GenerationTask {
	return model.GenerationTask{
		Kind: model.TaskAnswerGrade,
		Inputs: map[string]string{
			"question": question,
			"answer":   answer,
			"expected": expected,
		},
	}
}

// CVScoreTask builds a CV-evaluation task.
func CVScoreTask(cv, jobDescription string) model.GenerationTask {
	return model.GenerationTask{
		Kind: model.TaskCVScore,
		Inputs: map[string]string{
			"cv":              cv,
			"job_description": jobDescription,
		},
	}
}

// SentimentTask builds a sentiment-analysis task.
func SentimentTask(text string) model.GenerationTask {
	return model.GenerationTask{
		Kind:   model.TaskSentiment,
		Inputs: map[string]string{"text": text},
	}
}

// PlagiarismTask builds a similarity-comparison task.
func PlagiarismTask(original, comparison string) model.GenerationTask {
	return model.GenerationTask{
		Kind: model.TaskPlagiarism,
		Inputs: map[string]string{
			"original":   original,
			"comparison": comparison,
		},
	}
}

// sanitizeInput trims an input and caps its length so one oversized field
// cannot blow past the provider's context window.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 10000 {
		runes := []rune(s)
		s = string(runes[:10000]) + "\n\n[Texto truncado por longitud]"
	}
	return s
}
