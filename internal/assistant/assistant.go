// Package assistant runs the dialogue loop: capture an utterance,
// transcribe it, ask the language model, synthesize the reply and play
// it back. Capture is gated off while playback is running so the
// microphone does not hear the assistant's own voice.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai/llm"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
	"github.com/voiceloop/voiceloop/pkg/ai/tts"
	"github.com/voiceloop/voiceloop/pkg/voice"
)

// ErrNoSpeech indicates a capture produced no usable transcript. The
// loop treats it as a quiet turn, not a failure.
var ErrNoSpeech = errors.New("no speech detected")

// DefaultSystemPrompt seeds the conversation.
const DefaultSystemPrompt = "You are a helpful assistant. Please respond naturally in the language " +
	"used by the user, utilizing human-like expressions and emotions. " +
	"Show understanding, empathy, and adaptability. Avoid disclosing your AI identity."

// Player plays synthesized audio to the user.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Config wires the assistant's providers together.
type Config struct {
	Recorder    *voice.Recorder
	Transcriber stt.Transcriber
	LLM         llm.LLM
	TTS         tts.TTS
	Player      Player

	RecordOptions voice.RecordOptions
	SystemPrompt  string // defaults to DefaultSystemPrompt
	Voice         string
	Logger        *slog.Logger
}

// Assistant is one conversation: it keeps the message history across
// turns and runs one capture-transcribe-chat-speak cycle per turn.
type Assistant struct {
	recorder    *voice.Recorder
	transcriber stt.Transcriber
	llm         llm.LLM
	tts         tts.TTS
	player      Player
	gate        *voice.CaptureGate
	logger      *slog.Logger

	opts    voice.RecordOptions
	voice   string
	history []llm.Message
}

// New creates an assistant. Recorder, Transcriber, LLM, TTS and Player
// are all required.
func New(cfg Config) (*Assistant, error) {
	if cfg.Recorder == nil || cfg.Transcriber == nil || cfg.LLM == nil || cfg.TTS == nil || cfg.Player == nil {
		return nil, fmt.Errorf("recorder, transcriber, llm, tts and player are all required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RecordOptions.MaxDuration <= 0 {
		cfg.RecordOptions.MaxDuration = voice.DefaultMaxDuration
	}
	if cfg.RecordOptions.MaxSilence <= 0 {
		cfg.RecordOptions.MaxSilence = voice.DefaultMaxSilence
	}

	return &Assistant{
		recorder:    cfg.Recorder,
		transcriber: cfg.Transcriber,
		llm:         cfg.LLM,
		tts:         cfg.TTS,
		player:      cfg.Player,
		gate:        &voice.CaptureGate{},
		logger:      cfg.Logger,
		opts:        cfg.RecordOptions,
		voice:       cfg.Voice,
		history: []llm.Message{
			{Role: llm.RoleSystem, Content: cfg.SystemPrompt},
		},
	}, nil
}

// Gate exposes the capture gate, mainly so playback integrations can
// observe it.
func (a *Assistant) Gate() *voice.CaptureGate {
	return a.gate
}

// History returns the conversation so far, including the system prompt.
func (a *Assistant) History() []llm.Message {
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// RunTurn runs one full dialogue turn. A silent capture returns
// ErrNoSpeech; callers looping over turns should treat it as a skip.
func (a *Assistant) RunTurn(ctx context.Context) error {
	if a.gate.Blocked() {
		return fmt.Errorf("capture is blocked while playback is active")
	}

	transcript, err := a.listen(ctx)
	if err != nil {
		return err
	}

	reply, err := a.respond(ctx, transcript)
	if err != nil {
		return err
	}

	return a.speak(ctx, reply)
}

// Run loops dialogue turns until the context is cancelled. Quiet turns
// and recoverable provider errors keep the loop going.
func (a *Assistant) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := a.RunTurn(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoSpeech):
			a.logger.Debug("No speech detected, listening again")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			a.logger.Error("Dialogue turn failed", slog.String("error", err.Error()))
			return err
		}
	}
}

// listen captures one utterance and transcribes it.
func (a *Assistant) listen(ctx context.Context) (string, error) {
	capture, err := a.recorder.Record(ctx, a.opts)
	if err != nil {
		return "", err
	}

	wavAudio, err := capture.WAV()
	if err != nil {
		return "", err
	}

	start := time.Now()
	transcript, err := a.transcriber.Transcribe(ctx, wavAudio)
	if err != nil {
		return "", fmt.Errorf("speech-to-text failed: %w", err)
	}
	if transcript == "" {
		return "", ErrNoSpeech
	}

	a.logger.Info("Transcription complete",
		slog.String("text", transcript),
		slog.Duration("capture", capture.Duration()),
		slog.Duration("latency", time.Since(start)))

	return transcript, nil
}

// respond appends the user turn to the history and asks the model.
func (a *Assistant) respond(ctx context.Context, transcript string) (string, error) {
	a.history = append(a.history, llm.Message{Role: llm.RoleUser, Content: transcript})

	resp, err := a.llm.Chat(ctx, llm.ChatRequest{Messages: a.history})
	if err != nil {
		// A failed turn should not leave a dangling user message.
		a.history = a.history[:len(a.history)-1]
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	a.history = append(a.history, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
	a.logger.Info("Assistant reply", slog.String("text", resp.Content))

	return resp.Content, nil
}

// speak synthesizes the reply and plays it with the capture gate held.
func (a *Assistant) speak(ctx context.Context, text string) error {
	audio, err := a.tts.Synthesize(ctx, tts.SynthesizeRequest{Text: text, Voice: a.voice})
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	a.gate.SetPlaying(true)
	defer a.gate.SetPlaying(false)

	if err := a.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
