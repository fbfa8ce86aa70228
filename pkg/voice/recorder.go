// Package voice implements the voice-activity-gated capture engine:
// a recorder that reads 10ms PCM frames from a live input device or a
// replay sequence, classifies each frame as speech or silence, and
// stops on its own once the trailing silence or the total duration
// limit is reached.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai/vad"
	"github.com/voiceloop/voiceloop/pkg/audio/wav"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

var (
	// ErrRecordingFailed indicates the input device could not be opened
	// or failed mid-stream. The underlying cause is wrapped; the engine
	// never retries.
	ErrRecordingFailed = errors.New("recording failed")

	// ErrEncodeFailed indicates a frame sequence could not be written
	// out. This is an input-contract violation upstream, not a
	// transient condition.
	ErrEncodeFailed = errors.New("failed to write audio to buffer")
)

// Default capture limits, matching the defaults of the original CLI.
const (
	DefaultMaxDuration = 60 * time.Second
	DefaultMaxSilence  = 1 * time.Second
)

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	SampleRate int            // defaults to rtc.DefaultSampleRate
	Classifier vad.Classifier // defaults to the energy classifier
	Logger     *slog.Logger   // defaults to slog.Default()
}

// RecordOptions are the per-capture limits and the optional replay
// input. A nil Replay selects the live input device.
type RecordOptions struct {
	MaxDuration time.Duration
	MaxSilence  time.Duration
	Replay      []*rtc.AudioFrame
}

// Recorder is the capture engine composition root: it wires a frame
// source into a fresh CaptureSession per invocation and returns the
// accepted frames. Encoding is requested separately on the Capture.
type Recorder struct {
	sampleRate int
	classifier vad.Classifier
	logger     *slog.Logger

	// openLive is swapped out in tests to simulate device failures.
	openLive func(sampleRate int) (FrameSource, error)
}

// NewRecorder creates a Recorder. A non-positive sample rate in the
// config is rejected here, before any device interaction.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = rtc.DefaultSampleRate
	}
	if cfg.SampleRate < 0 || cfg.SampleRate%100 != 0 {
		return nil, fmt.Errorf("invalid sample rate %d: must be positive and divide into 10ms frames", cfg.SampleRate)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = vad.NewEnergyClassifier(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Recorder{
		sampleRate: cfg.SampleRate,
		classifier: cfg.Classifier,
		logger:     cfg.Logger,
		openLive:   openDeviceSource,
	}, nil
}

// Record captures audio until the session reaches its terminal state.
// The returned Capture owns its frames; the session is discarded.
//
// On cancellation the device is released and no partial audio is
// returned. Device failures surface as ErrRecordingFailed with the
// cause preserved.
func (r *Recorder) Record(ctx context.Context, opts RecordOptions) (*Capture, error) {
	if opts.MaxDuration <= 0 {
		return nil, fmt.Errorf("invalid max duration %v: must be positive", opts.MaxDuration)
	}
	if opts.MaxSilence < 0 {
		return nil, fmt.Errorf("invalid max silence %v: must not be negative", opts.MaxSilence)
	}

	session := NewCaptureSession(SessionConfig{
		SampleRate:  r.sampleRate,
		MaxDuration: opts.MaxDuration,
		MaxSilence:  opts.MaxSilence,
	}, r.classifier)

	var (
		source FrameSource
		err    error
	)
	if opts.Replay != nil {
		source = NewReplaySource(opts.Replay)
	} else {
		r.logger.Info("Start recording",
			slog.Int("sample_rate", r.sampleRate),
			slog.Duration("max_duration", opts.MaxDuration),
			slog.Duration("max_silence", opts.MaxSilence))
		source, err = r.openLive(r.sampleRate)
		if err != nil {
			return nil, err
		}
	}
	defer source.Close()

	for session.Active() {
		frame, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if err := session.ProcessFrame(frame); err != nil {
			return nil, err
		}
	}

	frames := session.Frames()
	r.logger.Debug("Recording finished",
		slog.Int("frames", len(frames)),
		slog.Duration("duration", time.Duration(len(frames))*frameDuration))

	return &Capture{Frames: frames, SampleRate: r.sampleRate}, nil
}

// Capture is the terminal output of a capture session: an ordered,
// caller-owned frame sequence convertible to raw PCM or WAV.
type Capture struct {
	Frames     []*rtc.AudioFrame
	SampleRate int
}

// Duration returns the total duration of the captured audio.
func (c *Capture) Duration() time.Duration {
	return time.Duration(len(c.Frames)) * frameDuration
}

// PCM concatenates the frame payloads in order with no header.
func (c *Capture) PCM() ([]byte, error) {
	return EncodePCM(c.Frames)
}

// WAV encodes the frames as a mono 16-bit WAV file at the capture
// sample rate.
func (c *Capture) WAV() ([]byte, error) {
	return wav.Encode(c.Frames, c.SampleRate)
}

// EncodePCM converts an ordered frame sequence into a raw PCM byte
// container: a byte-for-byte concatenation of the frame payloads.
func EncodePCM(frames []*rtc.AudioFrame) ([]byte, error) {
	var buf bytes.Buffer
	for i, frame := range frames {
		if frame == nil || frame.Data == nil {
			return nil, fmt.Errorf("%w: frame %d has no payload", ErrEncodeFailed, i)
		}
		if _, err := buf.Write(frame.Data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
		}
	}
	return buf.Bytes(), nil
}
