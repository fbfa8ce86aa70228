// Package fake provides a fake transcriber for testing.
package fake

import (
	"context"
	"sync"

	"github.com/voiceloop/voiceloop/pkg/ai/stt"
)

// DefaultTranscript is used when no transcript is provided.
const DefaultTranscript = "This is a fake transcript from the fake STT provider."

// FakeTranscriber is a fake batch transcriber for testing. It returns a
// fixed transcript and records the audio it was given.
type FakeTranscriber struct {
	mu         sync.Mutex
	transcript string
	err        error
	lastAudio  []byte
	calls      int
}

// NewFakeTranscriber creates a fake transcriber with a fixed transcript.
func NewFakeTranscriber(transcript string) *FakeTranscriber {
	if transcript == "" {
		transcript = DefaultTranscript
	}
	return &FakeTranscriber{transcript: transcript}
}

// FailWith makes every subsequent Transcribe call return err.
func (f *FakeTranscriber) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Transcribe returns the configured transcript.
func (f *FakeTranscriber) Transcribe(ctx context.Context, wavAudio []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.lastAudio = wavAudio
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

// LastAudio returns the audio passed to the most recent call.
func (f *FakeTranscriber) LastAudio() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAudio
}

// Calls returns how many transcriptions were requested.
func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Capabilities returns the fake transcriber capabilities.
func (f *FakeTranscriber) Capabilities() stt.Capabilities {
	return stt.Capabilities{
		Streaming:          false,
		InterimResults:     false,
		SupportedLanguages: []string{"en", "zh"},
		SampleRates:        []int{16000, 48000},
	}
}
