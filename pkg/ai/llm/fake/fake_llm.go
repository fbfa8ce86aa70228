// Package fake provides a fake chat-completion provider for testing.
package fake

import (
	"context"
	"sync"

	"github.com/voiceloop/voiceloop/pkg/ai/llm"
)

// DefaultReply is used when no reply is provided.
const DefaultReply = "This is a fake reply from the fake LLM provider."

// FakeLLM is a fake chat-completion provider for testing. It returns a
// fixed reply and records the requests it receives.
type FakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.ChatRequest
}

// NewFakeLLM creates a fake provider with a fixed reply.
func NewFakeLLM(reply string) *FakeLLM {
	if reply == "" {
		reply = DefaultReply
	}
	return &FakeLLM{reply: reply}
}

// FailWith makes every subsequent Chat call return err.
func (f *FakeLLM) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Chat returns the configured reply.
func (f *FakeLLM) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.ChatResponse{}, f.err
	}
	return llm.ChatResponse{Content: f.reply, Model: "fake"}, nil
}

// Requests returns the chat requests received so far.
func (f *FakeLLM) Requests() []llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// Capabilities returns the fake provider capabilities.
func (f *FakeLLM) Capabilities() llm.Capabilities {
	return llm.Capabilities{
		Streaming: false,
		Models:    []string{"fake"},
	}
}
