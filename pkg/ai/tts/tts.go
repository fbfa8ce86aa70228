// Package tts provides interfaces and types for text-to-speech
// providers.
package tts

import (
	"context"

	"github.com/voiceloop/voiceloop/pkg/ai"
)

// TTS-specific error variables for backward compatibility
var (
	// ErrRecoverable indicates a temporary TTS failure that may succeed if retried.
	// Examples: service overload, temporary quota exceeded, network issues.
	ErrRecoverable = ai.ErrRecoverable

	// ErrFatal indicates a permanent TTS failure that will not succeed if retried.
	// Examples: invalid voice ID, unsupported text format.
	ErrFatal = ai.ErrFatal
)

// SynthesizeRequest contains parameters for text-to-speech synthesis.
type SynthesizeRequest struct {
	Text     string
	Voice    string
	Language string
	Speed    float32
}

// Capabilities describes the capabilities of a TTS provider.
type Capabilities struct {
	SupportedLanguages   []string
	SupportedVoices      []string
	SampleRates          []int
	SupportsSpeedControl bool
}

// TTS is the main interface for text-to-speech providers.
type TTS interface {
	// Synthesize converts text to a complete audio byte stream in the
	// provider's native container format.
	Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error)

	// Capabilities returns the provider's capabilities.
	Capabilities() Capabilities
}
