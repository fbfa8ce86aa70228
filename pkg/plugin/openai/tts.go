package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/ai/tts"
)

// SpeechTTS implements text-to-speech using OpenAI's speech API.
type SpeechTTS struct {
	client *openai.Client
	model  string
	voice  string
	logger *slog.Logger
}

func newSpeechTTS(cfg map[string]any) (any, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &SpeechTTS{
		client: client,
		model:  configString(cfg, "model", string(openai.TTSModel1)),
		voice:  configString(cfg, "voice", string(openai.VoiceAlloy)),
		logger: slog.Default(),
	}, nil
}

// NewSpeechTTS creates a TTS provider directly, bypassing the registry.
func NewSpeechTTS(client *openai.Client, model, voice string) *SpeechTTS {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &SpeechTTS{client: client, model: model, voice: voice, logger: slog.Default()}
}

var markupTag = regexp.MustCompile(`<[^>]+>`)

// normalizeText strips SSML-style markup chat models sometimes emit.
// The speech endpoint takes plain text only.
func normalizeText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "<speak") {
		text = strings.TrimSpace(markupTag.ReplaceAllString(text, ""))
	}
	return text
}

// Synthesize converts text to audio bytes.
func (s *SpeechTTS) Synthesize(ctx context.Context, req tts.SynthesizeRequest) ([]byte, error) {
	text := normalizeText(req.Text)
	if text == "" {
		return nil, ai.NewFatalError(fmt.Errorf("empty text"), "cannot synthesize empty text")
	}

	voice := req.Voice
	if voice == "" {
		voice = s.voice
	}

	speechReq := openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.model),
		Input: text,
		Voice: openai.SpeechVoice(voice),
	}
	if req.Speed > 0 {
		speechReq.Speed = float64(req.Speed)
	}

	start := time.Now()

	resp, err := s.client.CreateSpeech(ctx, speechReq)
	if err != nil {
		return nil, ai.NewRecoverableError(err, fmt.Sprintf("speech synthesis failed: %v", err))
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, ai.NewRecoverableError(err, fmt.Sprintf("failed to read synthesized audio: %v", err))
	}

	s.logger.Debug("Speech synthesis complete",
		slog.String("voice", voice),
		slog.Int("text_len", len(text)),
		slog.Int("audio_bytes", len(audio)),
		slog.Duration("latency", time.Since(start)))

	return audio, nil
}

// Capabilities returns the provider's capabilities.
func (s *SpeechTTS) Capabilities() tts.Capabilities {
	return tts.Capabilities{
		SupportedLanguages: []string{"en", "zh", "de", "es", "fr", "ja"},
		SupportedVoices: []string{
			string(openai.VoiceAlloy), string(openai.VoiceEcho), string(openai.VoiceFable),
			string(openai.VoiceOnyx), string(openai.VoiceNova), string(openai.VoiceShimmer),
		},
		SampleRates:          []int{24000},
		SupportsSpeedControl: true,
	}
}
