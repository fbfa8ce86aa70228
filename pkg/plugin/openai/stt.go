package openai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
)

// WhisperSTT implements batch transcription using OpenAI's Whisper API.
// The capture engine produces WAV bytes; Whisper accepts them directly,
// so no temp files are involved.
type WhisperSTT struct {
	client   *openai.Client
	model    string
	language string
	logger   *slog.Logger
}

func newWhisperSTT(cfg map[string]any) (any, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &WhisperSTT{
		client:   client,
		model:    configString(cfg, "model", openai.Whisper1),
		language: configString(cfg, "language", ""),
		logger:   slog.Default(),
	}, nil
}

// NewWhisperSTT creates a Whisper transcriber directly, for callers
// that do not go through the plugin registry.
func NewWhisperSTT(client *openai.Client, model string) *WhisperSTT {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperSTT{client: client, model: model, logger: slog.Default()}
}

// Transcribe sends WAV audio to Whisper and returns the transcript.
func (w *WhisperSTT) Transcribe(ctx context.Context, wavAudio []byte) (string, error) {
	if len(wavAudio) == 0 {
		return "", ai.NewFatalError(fmt.Errorf("empty audio"), "cannot transcribe empty audio")
	}

	start := time.Now()

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "capture.wav",
		Reader:   bytes.NewReader(wavAudio),
		Language: w.language,
	})
	if err != nil {
		return "", ai.NewRecoverableError(err, fmt.Sprintf("whisper transcription failed: %v", err))
	}

	w.logger.Debug("Whisper transcription complete",
		slog.Int("audio_bytes", len(wavAudio)),
		slog.Duration("latency", time.Since(start)),
		slog.Int("text_len", len(resp.Text)))

	return resp.Text, nil
}

// Capabilities returns the provider's capabilities.
func (w *WhisperSTT) Capabilities() stt.Capabilities {
	return stt.Capabilities{
		Streaming:      false,
		InterimResults: false,
		SupportedLanguages: []string{
			"en", "zh", "de", "es", "ru", "ko", "fr", "ja", "pt", "tr", "pl", "nl",
			"ar", "sv", "it", "id", "hi", "fi", "vi", "he", "uk", "el", "cs", "ro",
		},
		SampleRates: []int{16000, 22050, 44100, 48000},
	}
}
