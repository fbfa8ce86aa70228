// Package stt provides interfaces and types for speech-to-text
// providers. Batch providers transcribe a finished capture in one
// round trip; streaming providers accept frames as they arrive and
// emit interim and final transcripts.
package stt

import (
	"context"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// STT-specific error variables for backward compatibility
var (
	// ErrRecoverable indicates a temporary STT failure that may succeed if retried.
	// Examples: network timeout, service unavailable, rate limiting.
	ErrRecoverable = ai.ErrRecoverable

	// ErrFatal indicates a permanent STT failure that will not succeed if retried.
	// Examples: invalid audio format, unsupported language, authentication failure.
	ErrFatal = ai.ErrFatal
)

// Capabilities describes the capabilities of an STT provider.
type Capabilities struct {
	Streaming          bool
	InterimResults     bool
	SupportedLanguages []string
	SampleRates        []int
}

// Transcriber converts a complete WAV-encoded capture into text.
type Transcriber interface {
	// Transcribe sends the audio for recognition and returns the text.
	Transcribe(ctx context.Context, wavAudio []byte) (string, error)

	// Capabilities returns the provider's capabilities.
	Capabilities() Capabilities
}

// SpeechEvent represents a streaming recognition event.
type SpeechEvent struct {
	Type      SpeechEventType // Type of event (interim, final, or error)
	Text      string          // Transcribed text (empty for error events)
	IsFinal   bool            // True if this is a final result that won't change
	Timestamp int64           // Event timestamp in milliseconds since epoch
	Error     error           // Error details (only set for error events)
}

// SpeechEventType represents the type of speech recognition event.
type SpeechEventType int

const (
	// SpeechEventInterim represents partial transcription results that may change
	SpeechEventInterim SpeechEventType = iota
	// SpeechEventFinal represents final transcription results that won't change
	SpeechEventFinal
	// SpeechEventError represents transcription errors
	SpeechEventError
)

// StreamConfig contains configuration for streaming STT sessions.
type StreamConfig struct {
	SampleRate int
	Lang       string
}

// Stream represents an active streaming STT session.
type Stream interface {
	// Push sends an audio frame for processing.
	Push(frame *rtc.AudioFrame) error

	// Events returns a channel of speech recognition events.
	Events() <-chan SpeechEvent

	// CloseSend signals that no more audio will be sent and flushes any pending data.
	CloseSend() error
}

// StreamingTranscriber is implemented by providers with a live
// streaming protocol.
type StreamingTranscriber interface {
	// NewStream opens a streaming recognition session.
	NewStream(ctx context.Context, cfg StreamConfig) (Stream, error)

	// Capabilities returns the provider's capabilities.
	Capabilities() Capabilities
}
