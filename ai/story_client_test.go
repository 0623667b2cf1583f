package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"datastory/adapters/llm"
	"datastory/internal/config"
	"datastory/internal/errors"
	"datastory/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storyEnvelope = `{"model":"gpt-3.5-turbo","choices":[{"message":{"content":"{\"narrative\":\"Sales grew.\",\"key_insights\":[{\"title\":\"Growth\",\"description\":\"Up 10%\"}]}"}}],
  "usage":{"prompt_tokens":50,"completion_tokens":20,"total_tokens":70}}`

type recordedUsage struct {
	operation string
	usage     *ports.UsageData
}

type fakeRecorder struct{ calls []recordedUsage }

func (f *fakeRecorder) RecordUsage(ctx context.Context, requestID *uuid.UUID, operationType string, usage *ports.UsageData) error {
	f.calls = append(f.calls, recordedUsage{operation: operationType, usage: usage})
	return nil
}

func clientFor(t *testing.T, handler http.HandlerFunc, opts ...StoryClientOption) *StoryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStoryClient(config.AIConfig{OpenAIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-3.5-turbo", Temperature: 0.7}, opts...)
}

func TestRequestStorySuccess(t *testing.T) {
	recorder := &fakeRecorder{}
	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(storyEnvelope))
	}, WithUsageRecorder(recorder))

	resp := c.RequestStory(context.Background(), "prompt")
	require.NotNil(t, resp)
	assert.Equal(t, "Sales grew.", resp.Narrative)
	require.Len(t, resp.KeyInsights, 1)
	assert.Equal(t, "Growth", resp.KeyInsights[0].Title)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, "story_generation", recorder.calls[0].operation)
	assert.Equal(t, 70, recorder.calls[0].usage.TotalTokens)
}

func TestRequestStoryReturnsNilOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"overloaded"}`, http.StatusInternalServerError)
		}},
		{"malformed content", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Sorry, I cannot help with that."}}]}`))
		}},
		{"missing content", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{}}]}`))
		}},
		{"non-object content", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[1,2,3]"}}]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clientFor(t, tt.handler)
			assert.Nil(t, c.RequestStory(context.Background(), "prompt"))

			_, err := c.Story(context.Background(), "prompt")
			assert.Equal(t, errors.CodeNarrativeService, errors.GetCode(err))
		})
	}
}

func TestRequestStoryIgnoresCallerCancellation(t *testing.T) {
	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(storyEnvelope))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := c.Story(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Sales grew.", resp.Narrative)
}

func TestRequestStoryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewStoryClient(config.AIConfig{OpenAIKey: "sk-test", BaseURL: url})
	assert.Nil(t, c.RequestStory(context.Background(), "prompt"))
}

func TestStoryClientUnavailable(t *testing.T) {
	c := NewStoryClient(config.AIConfig{})
	assert.False(t, c.Available())

	_, err := c.Story(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, c.AskQuestion(context.Background(), "prompt"))
}

func TestAskQuestionWithMock(t *testing.T) {
	mock := &llm.MockLLMClient{Response: "```json\n{\"answer\": \"North\", \"data_points\": [\"North: 120\"]}\n```"}
	c := NewStoryClient(config.AIConfig{}, WithLLMClient(mock))

	ans := c.AskQuestion(context.Background(), "Which region sells most?")
	require.NotNil(t, ans)
	assert.Equal(t, "North", ans.Answer)
	assert.Equal(t, []string{"North: 120"}, ans.DataPoints)
	assert.Equal(t, []string{"Which region sells most?"}, mock.Prompts)
}

func TestCleanJSONContent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"Here is the story:\n{\"a\":1}", `{"a":1}`},
		{"no json here", "no json here"},
	}
	for _, tt := range tests {
		if got := cleanJSONContent(tt.in); got != tt.want {
			t.Fatalf("cleanJSONContent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
