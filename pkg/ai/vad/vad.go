// Package vad provides interfaces and implementations for frame-level
// voice activity detection. A classifier looks at a single fixed-size
// PCM frame and decides whether it contains speech; all session-level
// bookkeeping (trailing silence, stop conditions) lives in the capture
// engine, not here.
package vad

import (
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai"
)

// VAD-specific error variables for backward compatibility
var (
	// ErrRecoverable indicates a temporary VAD failure that may succeed if retried.
	ErrRecoverable = ai.ErrRecoverable

	// ErrFatal indicates a permanent VAD failure that will not succeed if retried.
	// Examples: unsupported audio format, invalid configuration.
	ErrFatal = ai.ErrFatal
)

// Capabilities describes the capabilities of a classifier.
type Capabilities struct {
	SampleRates   []int
	FrameDuration time.Duration
	Sensitivity   float32 // 0.0 to 1.0
}

// Classifier is the frame-level speech/non-speech judgment.
//
// IsSpeech must be synchronous and side-effect free per call: the same
// frame with the same configuration yields the same answer, and calls
// never block on I/O. The frame must be raw little-endian 16-bit PCM
// with exactly one 10ms block of samples at the given rate.
type Classifier interface {
	IsSpeech(frame []byte, sampleRate int) (bool, error)

	// Capabilities returns the classifier's capabilities.
	Capabilities() Capabilities
}
