package agent

import (
	"context"
	"time"

	"github.com/harun/agentq/internal/observability"
	"github.com/harun/agentq/internal/tracing"
	"github.com/harun/agentq/pkg/conversation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Reply failure messages
const (
	MsgConnectionFailed = "Failed to connect to the API endpoint."
	MsgReplyFailed      = "An unexpected error occurred during response generation."
)

// ReplyConfig configures a ReplyClient
type ReplyConfig struct {
	Model     string
	MaxTokens int
	Logger    zerolog.Logger
}

// ReplyClient sends an agent's conversation to a remote provider
type ReplyClient struct {
	provider  LLMProvider
	model     string
	maxTokens int
	logger    zerolog.Logger
}

// NewReplyClient creates a reply client over provider
func NewReplyClient(provider LLMProvider, cfg ReplyConfig) *ReplyClient {
	observability.EnsureRegistered()
	return &ReplyClient{
		provider:  provider,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger.With().Str("component", "reply").Str("provider", provider.Provider()).Logger(),
	}
}

// Complete appends the agent's current task as a user message, prunes the
// history and asks the provider for a reply. The assistant message is only
// appended when the call succeeds.
func (c *ReplyClient) Complete(ctx context.Context, a *Agent) string {
	history := a.History()
	history.Append(conversation.RoleUser, a.CurrentTask())
	if evicted := history.Prune(); evicted > 0 {
		c.logger.Debug().Int("evicted", evicted).Int("size", history.Size()).Msg("Pruned conversation history")
	}

	ctx, span := tracing.StartSpan(ctx, "agentq.reply", "reply.complete",
		attribute.String("provider", c.provider.Provider()),
		attribute.String("model", c.model),
		attribute.Int("messages", history.Len()),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, c.logger)

	start := time.Now()
	resp, err := c.provider.Call(ctx, LLMRequest{
		Model:     c.model,
		Messages:  history.Messages(),
		MaxTokens: c.maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		tracing.RecordError(span, err)
		if IsConnectionError(err) {
			observability.RecordReply(c.provider.Provider(), "connection_error", duration)
			logger.Warn().Err(err).Msg("Failed to connect to the API endpoint")
			return MsgConnectionFailed
		}
		observability.RecordReply(c.provider.Provider(), "error", duration)
		logger.Warn().Err(err).Msg("Response generation failed")
		return MsgReplyFailed
	}

	history.Append(conversation.RoleAssistant, resp.Content)
	observability.RecordReply(c.provider.Provider(), "success", duration)

	event := logger.Debug().Dur("duration", duration)
	if resp.Usage != nil {
		event = event.Int("input_tokens", resp.Usage.InputTokens).Int("output_tokens", resp.Usage.OutputTokens)
	}
	event.Msg("Received reply")

	return resp.Content
}
