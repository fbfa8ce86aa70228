// Package llm provides interfaces and types for chat-completion
// providers.
package llm

import (
	"context"

	"github.com/voiceloop/voiceloop/pkg/ai"
)

// LLM-specific error variables for backward compatibility
var (
	// ErrRecoverable indicates a temporary LLM failure that may succeed if retried.
	ErrRecoverable = ai.ErrRecoverable

	// ErrFatal indicates a permanent LLM failure that will not succeed if retried.
	ErrFatal = ai.ErrFatal
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation history.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest contains the conversation and generation parameters.
type ChatRequest struct {
	Messages    []Message
	Temperature float32 // 0 selects the provider default
	MaxTokens   int     // 0 selects the provider default
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Content string
	Model   string
}

// Capabilities describes the capabilities of an LLM provider.
type Capabilities struct {
	Streaming bool
	Models    []string
}

// LLM is the main interface for chat-completion providers.
type LLM interface {
	// Chat performs a chat completion with conversation history.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Capabilities returns the provider's capabilities.
	Capabilities() Capabilities
}
