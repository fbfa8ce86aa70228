// Package fake provides a fake text-to-speech provider for testing.
package fake

import (
	"context"
	"sync"

	"github.com/voiceloop/voiceloop/pkg/ai/tts"
)

// FakeTTS is a fake synthesizer for testing. It returns fixed audio
// bytes and records the texts it was asked to speak.
type FakeTTS struct {
	mu    sync.Mutex
	audio []byte
	err   error
	texts []string
}

// NewFakeTTS creates a fake provider returning the given audio bytes.
func NewFakeTTS(audio []byte) *FakeTTS {
	if audio == nil {
		audio = []byte("fake-audio")
	}
	return &FakeTTS{audio: audio}
}

// FailWith makes every subsequent Synthesize call return err.
func (f *FakeTTS) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Synthesize returns the configured audio bytes.
func (f *FakeTTS) Synthesize(ctx context.Context, req tts.SynthesizeRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.texts = append(f.texts, req.Text)
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

// Texts returns the synthesis requests received so far.
func (f *FakeTTS) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts
}

// Capabilities returns the fake provider capabilities.
func (f *FakeTTS) Capabilities() tts.Capabilities {
	return tts.Capabilities{
		SupportedLanguages:   []string{"en", "zh"},
		SupportedVoices:      []string{"fake"},
		SampleRates:          []int{16000, 24000},
		SupportsSpeedControl: true,
	}
}
