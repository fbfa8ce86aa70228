package voice

import (
	"fmt"
	"sync"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai/vad"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// frameDuration is the fixed duration of one capture frame.
const frameDuration = 10 * time.Millisecond

// SessionConfig holds the limits for a single capture session.
type SessionConfig struct {
	SampleRate  int
	MaxDuration time.Duration // hard cap on total captured audio
	MaxSilence  time.Duration // trailing silence that ends the session
}

// CaptureSession accumulates classified frames and decides when the
// recording is over. A session is created fresh for every capture
// invocation and is never reused: once either stop condition fires it
// stays terminal and ignores further frames.
//
// ProcessFrame runs the full classify-append-evaluate sequence under
// one lock, so concurrent observers never see half-updated state.
type CaptureSession struct {
	mu           sync.Mutex
	cfg          SessionConfig
	classifier   vad.Classifier
	frames       []*rtc.AudioFrame
	silentFrames int
	silentToStop int
	active       bool
}

// NewCaptureSession creates an active session with the given limits.
func NewCaptureSession(cfg SessionConfig, classifier vad.Classifier) *CaptureSession {
	return &CaptureSession{
		cfg:          cfg,
		classifier:   classifier,
		silentToStop: int(cfg.MaxSilence / frameDuration),
		active:       true,
	}
}

// ProcessFrame classifies one frame, appends it and evaluates the stop
// conditions. Both speech and silence frames are retained: the session
// captures continuous audio, it does not strip silence. The frame that
// trips a stop condition is itself kept.
func (s *CaptureSession) ProcessFrame(frame *rtc.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		// Terminal. The device may deliver a few more frames before
		// the stream is closed; they are dropped.
		return nil
	}

	isSpeech, err := s.classifier.IsSpeech(frame.Data, s.cfg.SampleRate)
	if err != nil {
		s.active = false
		return fmt.Errorf("classify frame %d: %w", len(s.frames), err)
	}

	if isSpeech {
		s.silentFrames = 0
	} else {
		s.silentFrames++
	}

	s.frames = append(s.frames, frame)

	// Evaluate after appending. Both boundaries are inclusive.
	if !isSpeech && s.silentFrames >= s.silentToStop {
		s.active = false
	}
	if time.Duration(len(s.frames))*frameDuration >= s.cfg.MaxDuration {
		s.active = false
	}

	return nil
}

// Active reports whether the session is still accepting frames.
func (s *CaptureSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Frames returns the accepted frame sequence in arrival order. The
// caller owns the returned slice; the session is discarded afterwards.
func (s *CaptureSession) Frames() []*rtc.AudioFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
