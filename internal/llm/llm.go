// Package llm is the gateway to text-completion providers.
//
// A Completer turns an ordered message list into a single trimmed completion.
// Providers are registered by name; the Failover wrapper picks the provider
// preferred by the conversation and falls back to the other one on provider
// failures, persisting a successful switch.
package llm

import (
	"context"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request a completion request
type Request struct {
	// ChatID is the owning conversation; providers ignore it, the
	// failover router uses it to look up the preferred provider.
	ChatID      int64
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Completer produces a completion for a request.
// Implementations must return trimmed non-empty text on success.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// System builds a system message
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user message
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant message
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
