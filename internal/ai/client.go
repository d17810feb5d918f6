// Package ai talks to an OpenAI-compatible generative endpoint and turns its
// loosely structured replies into typed assessment results.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/recruitly/screener/internal/model"
)

// ErrEmptyResponse reports a completion with no usable text.
var ErrEmptyResponse = errors.New("provider returned empty response")

// ErrorKind classifies an upstream failure for retry purposes.
type ErrorKind int

const (
	// Transient failures (connection errors, timeouts, 429, 5xx) are safe to retry.
	Transient ErrorKind = iota
	// Permanent failures (auth, malformed request, 4xx) will not improve on retry.
	Permanent
)

// UpstreamError wraps a provider failure with its retry classification.
type UpstreamError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("upstream error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable upstream failure.
func IsTransient(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == Transient
}

// Params are the sampling parameters for one provider call.
type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// paramsByKind holds per-task sampling defaults. Generation runs warmer than
// the scoring tasks, which want stable, parseable output.
var paramsByKind = map[model.TaskKind]Params{
	model.TaskQuestionGen: {MaxTokens: 2048, Temperature: 0.4, TopP: 0.95},
	model.TaskAnswerGrade: {MaxTokens: 1024, Temperature: 0.3, TopP: 0.9},
	model.TaskCVScore:     {MaxTokens: 2048, Temperature: 0.3, TopP: 0.9},
	model.TaskSentiment:   {MaxTokens: 256, Temperature: 0.2, TopP: 0.9},
	model.TaskPlagiarism:  {MaxTokens: 1024, Temperature: 0.2, TopP: 0.9},
}

// ParamsFor returns the sampling parameters for a task kind.
func ParamsFor(kind model.TaskKind) Params {
	if p, ok := paramsByKind[kind]; ok {
		return p
	}
	return Params{MaxTokens: 1024, Temperature: 0.3, TopP: 0.9}
}

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// Client wraps an OpenAI-compatible API client with retry on transient
// failures.
type Client struct {
	api         *openai.Client
	model       string
	maxAttempts int
	retryDelay  time.Duration
}

// NewClient creates a provider client. baseURL may be empty for the default
// endpoint.
func NewClient(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
}

// Generate sends a prompt and returns the raw completion text. Transient
// failures are retried up to three attempts with a fixed delay; permanent
// failures surface immediately.
func (c *Client) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			slog.Warn("retrying provider call", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := c.generateOnce(ctx, prompt, params)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("provider call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, prompt string, params Params) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Kind: Permanent, Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps a provider error to its retry classification. Rate limits and
// server-side errors are transient; every other API rejection is permanent.
// Anything that is not an API error at all is a connection-level failure.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := Permanent
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			kind = Transient
		}
		return &UpstreamError{Kind: kind, Status: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind := Permanent
		if reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500 {
			kind = Transient
		}
		return &UpstreamError{Kind: kind, Status: reqErr.HTTPStatusCode, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: Transient, Err: err}
	}
	return &UpstreamError{Kind: Transient, Err: err}
}

// Ping verifies the provider endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("provider ping: %w", err)
	}
	return nil
}
