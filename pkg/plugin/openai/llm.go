package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/ai/llm"
)

// ChatLLM implements chat completion using OpenAI GPT models.
type ChatLLM struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func newChatLLM(cfg map[string]any) (any, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ChatLLM{
		client: client,
		model:  configString(cfg, "model", openai.GPT4oMini),
		logger: slog.Default(),
	}, nil
}

// NewChatLLM creates a chat provider directly, bypassing the registry.
func NewChatLLM(client *openai.Client, model string) *ChatLLM {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &ChatLLM{client: client, model: model, logger: slog.Default()}
}

// Chat performs a chat completion with conversation history.
func (c *ChatLLM) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return llm.ChatResponse{}, ai.NewFatalError(fmt.Errorf("no messages"), "chat request has no messages")
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return llm.ChatResponse{}, ai.NewRecoverableError(err, fmt.Sprintf("chat completion failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		return llm.ChatResponse{}, ai.NewRecoverableError(fmt.Errorf("no choices in response"), "chat completion returned no choices")
	}

	c.logger.Debug("Chat completion",
		slog.String("model", resp.Model),
		slog.Int("messages", len(req.Messages)),
		slog.Duration("latency", time.Since(start)))

	return llm.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
	}, nil
}

// Capabilities returns the provider's capabilities.
func (c *ChatLLM) Capabilities() llm.Capabilities {
	return llm.Capabilities{
		Streaming: false,
		Models:    []string{openai.GPT4o, openai.GPT4oMini, openai.GPT3Dot5Turbo},
	}
}
