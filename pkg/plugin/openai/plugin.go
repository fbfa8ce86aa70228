// Package openai provides OpenAI-based AI providers (STT, TTS, LLM),
// including Whisper for speech-to-text. Both the public OpenAI API and
// Azure OpenAI deployments are supported.
package openai

import (
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voiceloop/voiceloop/pkg/plugin"
)

// newClient builds an API client from plugin config, falling back to
// the environment. An azure_endpoint selects the Azure auth scheme.
func newClient(cfg map[string]any) (*openai.Client, error) {
	apiKey, _ := cfg["api_key"].(string)
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or provide api_key in config)")
	}

	endpoint, _ := cfg["azure_endpoint"].(string)
	if endpoint == "" {
		return openai.NewClient(apiKey), nil
	}

	azure := openai.DefaultAzureConfig(apiKey, endpoint)
	if version, ok := cfg["api_version"].(string); ok && version != "" {
		azure.APIVersion = version
	}
	return openai.NewClientWithConfig(azure), nil
}

func configString(cfg map[string]any, key, fallback string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func init() {
	plugin.Register(&plugin.Plugin{
		Kind:        "stt",
		Name:        "openai",
		Factory:     newWhisperSTT,
		Description: "OpenAI Whisper speech-to-text",
	})
	plugin.Register(&plugin.Plugin{
		Kind:        "llm",
		Name:        "openai",
		Factory:     newChatLLM,
		Description: "OpenAI chat completion",
	})
	plugin.Register(&plugin.Plugin{
		Kind:        "tts",
		Name:        "openai",
		Factory:     newSpeechTTS,
		Description: "OpenAI text-to-speech",
	})
}
