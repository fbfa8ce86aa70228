// Package fake provides a fake voice activity classifier for testing.
package fake

import (
	"math/rand"
	"sync"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai/vad"
)

const (
	// DefaultSpeechProbability is the default probability of speech detection per frame
	DefaultSpeechProbability = 0.3
	// DefaultSeed is the deterministic seed for reproducible testing
	DefaultSeed = 42
)

// FakeClassifier is a fake classifier for testing. It answers from a
// pre-supplied script of per-frame decisions; once the script runs out
// it keeps returning the final decision. With no script it falls back
// to a seeded random stream so runs stay reproducible.
type FakeClassifier struct {
	mu                sync.Mutex
	script            []bool
	pos               int
	speechProbability float32
	rng               *rand.Rand
	calls             int
}

// NewScripted creates a classifier that replays the given decisions in
// order, one per IsSpeech call.
func NewScripted(script []bool) *FakeClassifier {
	return &FakeClassifier{script: script}
}

// NewRandom creates a classifier that answers randomly with the given
// speech probability, using a deterministic seed.
func NewRandom(speechProbability float32) *FakeClassifier {
	return NewRandomWithSeed(speechProbability, DefaultSeed)
}

// NewRandomWithSeed creates a random classifier with a custom seed.
// Use this for tests that need different random sequences.
func NewRandomWithSeed(speechProbability float32, seed int64) *FakeClassifier {
	if speechProbability <= 0 {
		speechProbability = DefaultSpeechProbability
	}
	return &FakeClassifier{
		speechProbability: speechProbability,
		rng:               rand.New(rand.NewSource(seed)),
	}
}

// IsSpeech returns the next scripted decision, or a seeded random one.
func (f *FakeClassifier) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if len(f.script) > 0 {
		decision := f.script[f.pos]
		if f.pos < len(f.script)-1 {
			f.pos++
		}
		return decision, nil
	}

	return f.rng.Float32() < f.speechProbability, nil
}

// Calls returns how many frames have been classified.
func (f *FakeClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Capabilities returns the fake classifier capabilities.
func (f *FakeClassifier) Capabilities() vad.Capabilities {
	return vad.Capabilities{
		SampleRates:   []int{16000, 48000},
		FrameDuration: 10 * time.Millisecond,
		Sensitivity:   f.speechProbability,
	}
}
