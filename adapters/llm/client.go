package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"datastory/ports"

	"github.com/tidwall/gjson"
)

const (
	// ProviderOpenAI is recorded as the provider of usage data
	ProviderOpenAI = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"
)

var (
	// ErrMissingAPIKey is returned when the client is built without a credential
	ErrMissingAPIKey = errors.New("missing OpenAI API key")
	// ErrMissingContent is returned when choices[0].message.content is absent
	ErrMissingContent = errors.New("openai response missing choices[0].message.content")
)

// StatusError is returned for a non-2xx response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// Config holds the chat-completion client settings
type Config struct {
	APIKey      string
	BaseURL     string // Optional override (default: https://api.openai.com/v1)
	Model       string
	Temperature float64
	MaxTokens   int // 0 leaves the provider default
	HTTPClient  *http.Client
}

// OpenAIClient implements ports.LLMClient for the chat-completions API
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

var _ ports.LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client. No timeout is set beyond the transport default.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = defaultModel
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OpenAIClient{
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		httpClient:  httpClient,
	}, nil
}

// SupportsJSONMode reports whether the model accepts response_format json_object
func SupportsJSONMode(model string) bool {
	return strings.Contains(model, "gpt-4") || strings.Contains(model, "-turbo")
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type requestBody struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// Model returns the configured model identifier
func (c *OpenAIClient) Model() string { return c.model }

// ChatCompletion posts the prompt as a single user message. One attempt only.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, prompt string) (*ports.LLMResponse, error) {
	body := requestBody{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if SupportsJSONMode(c.model) {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respRaw)}
	}

	content := gjson.GetBytes(respRaw, "choices.0.message.content")
	if content.Type != gjson.String {
		return nil, ErrMissingContent
	}

	out := &ports.LLMResponse{Content: content.Str}
	if usage := gjson.GetBytes(respRaw, "usage"); usage.IsObject() {
		model := gjson.GetBytes(respRaw, "model").String()
		if model == "" {
			model = c.model
		}
		out.Usage = &ports.UsageData{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
			Model:            model,
			Provider:         ProviderOpenAI,
		}
	}
	return out, nil
}

// MockLLMClient is a canned ports.LLMClient for tests
type MockLLMClient struct {
	Response string // Set this for testing
	Usage    *ports.UsageData
	Error    error // Set this to simulate errors
	Prompts  []string
}

var _ ports.LLMClient = (*MockLLMClient)(nil)

func (m *MockLLMClient) ChatCompletion(ctx context.Context, prompt string) (*ports.LLMResponse, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Error != nil {
		return nil, m.Error
	}
	return &ports.LLMResponse{Content: m.Response, Usage: m.Usage}, nil
}

func (m *MockLLMClient) Model() string { return defaultModel }
