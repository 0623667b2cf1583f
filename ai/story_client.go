package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"strings"
	"time"

	"datastory/adapters/llm"
	"datastory/domain/story"
	"datastory/internal/config"
	"datastory/internal/errors"
	"datastory/internal/metrics"
	"datastory/models"
	"datastory/ports"

	"github.com/google/uuid"
)

// ErrUnavailable is returned when no API key was configured
var ErrUnavailable = stderrors.New("narrative service is not configured (OPENAI_API_KEY is empty)")

// UsageRecorder receives the usage block of each successful call
type UsageRecorder interface {
	RecordUsage(ctx context.Context, requestID *uuid.UUID, operationType string, usage *ports.UsageData) error
}

// StoryClient requests stories and answers from the narrative service
type StoryClient struct {
	llm   ports.LLMClient
	usage UsageRecorder
}

// StoryClientOption configures a StoryClient
type StoryClientOption func(*StoryClient)

// WithUsageRecorder records token usage after each successful call
func WithUsageRecorder(r UsageRecorder) StoryClientOption {
	return func(c *StoryClient) { c.usage = r }
}

// WithLLMClient replaces the OpenAI client
func WithLLMClient(client ports.LLMClient) StoryClientOption {
	return func(c *StoryClient) { c.llm = client }
}

// NewStoryClient builds a client from configuration. A missing API key leaves
// the client unavailable; requests then fail with ErrUnavailable.
func NewStoryClient(cfg config.AIConfig, opts ...StoryClientOption) *StoryClient {
	c := &StoryClient{}
	if cfg.OpenAIKey != "" {
		client, err := llm.NewOpenAIClient(llm.Config{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			log.Printf("[StoryClient] ERROR: %v", err)
		} else {
			c.llm = client
			log.Printf("[StoryClient] Initializing client with model=%s, temp=%.2f", client.Model(), cfg.Temperature)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether a narrative service is configured
func (c *StoryClient) Available() bool { return c.llm != nil }

// RequestStory sends a compiled story prompt and returns the parsed story, or
// nil on any failure. Failures are logged; the caller substitutes a fallback.
func (c *StoryClient) RequestStory(ctx context.Context, prompt string) *story.Response {
	resp, err := c.Story(ctx, prompt)
	if err != nil {
		log.Printf("[StoryClient] ERROR: story request failed: %v", err)
		return nil
	}
	return resp
}

// AskQuestion sends a question prompt with the same nil-on-failure policy
func (c *StoryClient) AskQuestion(ctx context.Context, prompt string) *story.Answer {
	ans, err := c.Answer(ctx, prompt)
	if err != nil {
		log.Printf("[StoryClient] ERROR: question request failed: %v", err)
		return nil
	}
	return ans
}

// Story is RequestStory with the failure reason. Errors carry the
// NARRATIVE_SERVICE_ERROR code.
func (c *StoryClient) Story(ctx context.Context, prompt string) (*story.Response, error) {
	return request(ctx, c, "story", models.OpStoryGeneration, prompt, story.Parse)
}

// Answer is AskQuestion with the failure reason
func (c *StoryClient) Answer(ctx context.Context, prompt string) (*story.Answer, error) {
	return request(ctx, c, "question", models.OpQuestionAnswer, prompt, story.ParseAnswer)
}

// request performs one completion and parses its content. Exactly one
// outcome is recorded per call. Once issued the call runs to completion or
// transport failure; cancelling ctx does not abort it.
func request[T any](ctx context.Context, c *StoryClient, operation, usageOp, prompt string, parse func(string) (*T, error)) (*T, error) {
	ctx = context.WithoutCancel(ctx)
	if c.llm == nil {
		metrics.ObserveNarrative(operation, metrics.OutcomeUnavailable, 0)
		return nil, errors.NarrativeServiceError(ErrUnavailable)
	}

	requestID := uuid.New()
	log.Printf("[StoryClient] Sending %s request %s - model=%s, promptLength=%d",
		operation, requestID, c.llm.Model(), len(prompt))

	start := time.Now()
	resp, err := c.llm.ChatCompletion(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveNarrative(operation, outcomeOf(err), elapsed)
		return nil, errors.NarrativeServiceError(err)
	}
	log.Printf("[StoryClient] Request %s completed in %s - contentLength=%d",
		requestID, elapsed.Round(time.Millisecond), len(resp.Content))

	if resp.Usage != nil {
		metrics.AddTokens(resp.Usage.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		if c.usage != nil {
			if err := c.usage.RecordUsage(ctx, &requestID, usageOp, resp.Usage); err != nil {
				log.Printf("[StoryClient] WARN: usage not recorded for %s: %v", requestID, err)
			}
		}
	}

	out, err := parse(cleanJSONContent(resp.Content))
	if err != nil {
		metrics.ObserveNarrative(operation, metrics.OutcomeInvalidJSON, elapsed)
		return nil, errors.NarrativeServiceError(err)
	}
	metrics.ObserveNarrative(operation, metrics.OutcomeSuccess, elapsed)
	return out, nil
}

func outcomeOf(err error) string {
	var statusErr *llm.StatusError
	switch {
	case stderrors.As(err, &statusErr):
		return metrics.OutcomeHTTPError
	case stderrors.Is(err, llm.ErrMissingContent):
		return metrics.OutcomeMissingContent
	default:
		return metrics.OutcomeTransportError
	}
}

// cleanJSONContent removes a markdown code fence and any chatter before the
// first object. Content that is not JSON is left for the parser to reject.
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") && len(content) >= 6 {
		content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")
		content = strings.TrimPrefix(content, "json")
		content = strings.TrimSpace(content)
	}

	if !strings.HasPrefix(content, "{") {
		if i := strings.Index(content, "\n{"); i >= 0 && !strings.ContainsAny(content[:i], "{[") {
			log.Printf("[StoryClient] Trimming prefix chatter before JSON object")
			content = content[i+1:]
		}
	}

	return content
}

// String describes the client for startup logs
func (c *StoryClient) String() string {
	if c.llm == nil {
		return "StoryClient(unavailable)"
	}
	return fmt.Sprintf("StoryClient(model=%s)", c.llm.Model())
}
