package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Provider implements Completer on top of an OpenAI-compatible
// Chat Completions API. DeepSeek is served by the same implementation
// through its base URL.
type Provider struct {
	name    string
	client  *openai.Client
	model   string
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewProvider creates a provider for an OpenAI-compatible endpoint
func NewProvider(name, apiKey, baseURL, model string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &Provider{
		name:    name,
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		apiKey:  apiKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Provider) Name() string {
	return p.name
}

// Complete sends the request and returns the trimmed completion text
func (p *Provider) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrNoMessages
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	return text, nil
}

// wrapError maps API failures onto the gateway taxonomy
func (p *Provider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || isQuotaCode(apiErr.Code) {
			return &ProviderError{Provider: p.name, Status: apiErr.HTTPStatusCode, Err: ErrQuotaExceeded}
		}
		return &ProviderError{Provider: p.name, Status: apiErr.HTTPStatusCode, Err: err}
	}
	// Network failures and context timeouts land here
	return &ProviderError{Provider: p.name, Err: err}
}

func isQuotaCode(code any) bool {
	s, ok := code.(string)
	return ok && s == "insufficient_quota"
}
