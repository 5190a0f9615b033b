package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 60 * time.Second

// Outcome tells callers which path produced a Result.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeUnconfigured
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeUnconfigured:
		return "unconfigured"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the gateway's answer. Text is always populated; Err is set only
// for OutcomeFailed.
type Result struct {
	Text    string
	Outcome Outcome
	Err     error
}

// Degraded reports whether the text is placeholder content rather than a
// model answer.
func (r Result) Degraded() bool {
	return r.Outcome != OutcomeCompleted
}

// Reply flattens every outcome into plain text for callers that only
// understand a string answer.
func (r Result) Reply() string {
	return r.Text
}

// Gateway submits persona-framed conversations to a Provider.
type Gateway struct {
	provider Provider
	model    string
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewGateway creates a Gateway. A nil provider puts the gateway in degraded
// mode. Zero model and timeout fall back to DefaultModel and DefaultTimeout.
func NewGateway(provider Provider, model string, timeout time.Duration, logger zerolog.Logger) *Gateway {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{provider: provider, model: model, timeout: timeout, logger: logger}
}

// Configured reports whether a provider is available.
func (g *Gateway) Configured() bool {
	return g.provider != nil
}

// Model returns the model identifier sent with each request.
func (g *Gateway) Model() string {
	return g.model
}

// Messages builds the system and user turns for a completion.
func (g *Gateway) Messages(patientContext, userMessage string) []Message {
	return []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(personaPrompt, patientContext)},
		{Role: RoleUser, Content: userMessage},
	}
}

// Complete asks the provider to answer userMessage given patientContext.
// It never returns an error; failures are reported through the Result.
func (g *Gateway) Complete(ctx context.Context, patientContext, userMessage string) Result {
	if g.provider == nil {
		return Result{Text: UnconfiguredReply, Outcome: OutcomeUnconfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.provider.Complete(ctx, CompletionRequest{
		Model:    g.model,
		Messages: g.Messages(patientContext, userMessage),
	})
	if err != nil {
		g.logger.Error().Err(err).
			Str("model", g.model).
			Dur("latency", time.Since(start)).
			Msg("completion failed")
		return Result{
			Text:    fmt.Sprintf(failureReplyFormat, err.Error()),
			Outcome: OutcomeFailed,
			Err:     err,
		}
	}

	g.logger.Debug().
		Str("model", g.model).
		Dur("latency", time.Since(start)).
		Int("chars", len(text)).
		Msg("completion succeeded")
	return Result{Text: text, Outcome: OutcomeCompleted}
}
