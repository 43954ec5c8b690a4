// Package llm issues the single non-streaming completion call that turns
// the metadata prompt into narrative Markdown.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docassist/internal/prompt"
)

// Config holds the completion capability settings.
type Config struct {
	BaseURL         string // optional override, e.g. an Azure-compatible endpoint
	APIKey          string
	Model           string
	MaxOutputTokens int
	MaxRetries      int // transient failures retried with exponential backoff
}

// Result is the raw completion plus call metadata. Text is persisted
// verbatim and never mutated after receipt.
type Result struct {
	Text             string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	Truncated        bool // prompt-side truncation, carried from the payload
}

// Client wraps the chat-completions capability. The capability is an
// opaque black box: no response post-processing, no Markdown validation.
type Client struct {
	api       openai.Client
	model     string
	maxTokens int64
}

// New validates the configuration and builds a client. Retry policy is
// handled by the underlying SDK: rate-limit and transient network
// failures are retried with bounded exponential backoff, while auth and
// malformed-request errors surface immediately.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("completion api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("completion model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:       openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxOutputTokens),
	}, nil
}

// Complete sends the three-message payload and returns the raw response
// text unmodified. The caller's context deadline bounds the call; on
// timeout no partial completion is retained.
func (c *Client) Complete(ctx context.Context, payload prompt.Payload) (*Result, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		switch m.Role {
		case prompt.System:
			messages = append(messages, openai.SystemMessage(m.Content))
		case prompt.Developer:
			messages = append(messages, openai.DeveloperMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.maxTokens)
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return nil, fmt.Errorf("completion call failed (status %d): %w", apierr.StatusCode, err)
		}
		return nil, fmt.Errorf("completion call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("completion returned no choices")
	}

	return &Result{
		Text:             completion.Choices[0].Message.Content,
		Model:            completion.Model,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		Truncated:        payload.Truncated,
	}, nil
}
