package ports

import "context"

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse is the message content of a completion with its usage block.
// Usage is nil when the provider did not report one.
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient sends one prompt as a single user message and returns the
// content of the first choice.
type LLMClient interface {
	ChatCompletion(ctx context.Context, prompt string) (*LLMResponse, error)
	Model() string
}
