// Package llm is the boundary to the external chat-completion service.
//
// A Provider submits a conversation to some model and returns its text.
// Gateway wraps a Provider with the companion persona, a bounded wait, and
// the degraded-mode behavior callers rely on: Complete never fails, it
// reports what happened through Result.
package llm

import (
	"context"
	"errors"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyCompletion is returned by providers when the service answered
// without any choices.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest names the model and the conversation to submit.
type CompletionRequest struct {
	Model    string
	Messages []Message
}

// Provider is any chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
