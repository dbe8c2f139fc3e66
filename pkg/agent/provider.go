package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harun/agentq/pkg/conversation"
)

// LLMProvider is an interface for chat-completion backends
type LLMProvider interface {
	// Call sends the conversation and returns the assistant reply
	Call(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Provider returns the provider name
	Provider() string
}

// LLMRequest carries the model and the full, already pruned conversation
type LLMRequest struct {
	Model     string
	Messages  []conversation.Message
	MaxTokens int
}

// LLMResponse contains the reply text
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderConfig selects and configures a provider
type ProviderConfig struct {
	Provider   string        // "openai" (default) or "anthropic"
	Endpoint   string        // openai: the exact URL completions are POSTed to; anthropic: base URL
	APIKey     string        // optional
	Timeout    time.Duration // zero means no request timeout
	HTTPClient *http.Client  // optional
}

// ProviderFactory creates LLM providers
type ProviderFactory struct{}

// NewProvider creates a provider for cfg.Provider
func (f *ProviderFactory) NewProvider(cfg ProviderConfig) (LLMProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("provider endpoint is required")
	}

	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
