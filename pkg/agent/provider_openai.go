package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/harun/agentq/pkg/conversation"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements LLMProvider for OpenAI-compatible endpoints
type OpenAIProvider struct {
	client   openai.Client
	endpoint string
}

// NewOpenAIProvider creates a provider that POSTs every completion to
// cfg.Endpoint exactly as configured. SDK retries are disabled.
func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.Endpoint, "/") + "/"),
		option.WithMiddleware(pinEndpoint(cfg.Endpoint)),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIProvider{
		client:   openai.NewClient(opts...),
		endpoint: cfg.Endpoint,
	}
}

// pinEndpoint replaces the URL the SDK derives from its base URL and the
// resource path with the configured endpoint.
func pinEndpoint(endpoint string) option.Middleware {
	target, parseErr := url.Parse(endpoint)
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		if parseErr != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, parseErr)
		}
		u := *target
		req.URL = &u
		req.Host = u.Host
		return next(req)
	}
}

// Provider returns the provider name
func (p *OpenAIProvider) Provider() string {
	return "openai"
}

// Endpoint returns the URL every completion is posted to
func (p *OpenAIProvider) Endpoint() string {
	return p.endpoint
}

// Call posts {model, messages} and returns the first choice's content
func (p *OpenAIProvider) Call(ctx context.Context, request LLMRequest) (*LLMResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(request.Messages))
	for _, msg := range request.Messages {
		switch msg.Role {
		case conversation.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case conversation.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case conversation.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(request.Model),
		Messages: messages,
	}
	if request.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(request.MaxTokens))
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &LLMResponse{
		Content: response.Choices[0].Message.Content,
		Usage: &TokenUsage{
			InputTokens:  int(response.Usage.PromptTokens),
			OutputTokens: int(response.Usage.CompletionTokens),
		},
	}, nil
}
