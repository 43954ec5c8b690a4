package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/prompt"
)

func testPayload() prompt.Payload {
	return prompt.Payload{
		Messages: [3]prompt.Message{
			{Role: prompt.System, Content: "instruction text"},
			{Role: prompt.Developer, Content: "directive text"},
			{Role: prompt.User, Content: `{"repo":"r"}`},
		},
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Model: "gpt-4o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	_, err = New(Config{APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")

	c, err := New(Config{APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestCompleteSendsThreeRoleMessages(t *testing.T) {
	t.Parallel()

	var captured struct {
		Model               string `json:"model"`
		MaxCompletionTokens int64  `json:"max_completion_tokens"`
		Messages            []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "path = %s", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-2024",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "# Documentation\n\nBody."}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`))
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		Model:           "gpt-4o",
		MaxOutputTokens: 13107,
	})
	require.NoError(t, err)

	result, err := client.Complete(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, "# Documentation\n\nBody.", result.Text)
	assert.Equal(t, "gpt-4o-2024", result.Model)
	assert.Equal(t, int64(42), result.PromptTokens)
	assert.Equal(t, int64(7), result.CompletionTokens)

	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, int64(13107), captured.MaxCompletionTokens)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "instruction text", captured.Messages[0].Content)
	assert.Equal(t, "developer", captured.Messages[1].Role)
	assert.Equal(t, "directive text", captured.Messages[1].Content)
	assert.Equal(t, "user", captured.Messages[2].Role)
	assert.Equal(t, `{"repo":"r"}`, captured.Messages[2].Content)
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, APIKey: "bad", Model: "gpt-4o"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o", "choices": []}`))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
