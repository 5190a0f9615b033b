package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL points at Cerebras' OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.cerebras.ai/v1"

// DefaultModel is the model identifier sent with every request.
const DefaultModel = "llama-3.1-8b"

// OpenAIProvider calls any OpenAI-compatible chat completion API.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider constructs a provider for the given key and base URL.
// An empty baseURL uses DefaultBaseURL.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = baseURL
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

// Complete sends the messages to the chat completion endpoint and returns the
// first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
