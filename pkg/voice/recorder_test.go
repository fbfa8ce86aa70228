package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai/vad/fake"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

func newTestRecorder(t *testing.T, classifier *fake.FakeClassifier) *Recorder {
	t.Helper()
	recorder, err := NewRecorder(RecorderConfig{
		SampleRate: 16000,
		Classifier: classifier,
	})
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	return recorder
}

func TestRecorderInvalidConfig(t *testing.T) {
	if _, err := NewRecorder(RecorderConfig{SampleRate: -16000}); err == nil {
		t.Error("Expected error for negative sample rate")
	}
	if _, err := NewRecorder(RecorderConfig{SampleRate: 12345}); err == nil {
		t.Error("Expected error for sample rate not divisible into 10ms frames")
	}
}

func TestRecorderInvalidOptions(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{false}))

	_, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: 0,
		MaxSilence:  time.Second,
		Replay:      testFrames(t, 1),
	})
	if err == nil {
		t.Error("Expected error for zero max duration")
	}

	_, err = recorder.Record(context.Background(), RecordOptions{
		MaxDuration: time.Second,
		MaxSilence:  -time.Second,
		Replay:      testFrames(t, 1),
	})
	if err == nil {
		t.Error("Expected error for negative max silence")
	}
}

// Replay input of 10 silent frames with a 50ms silence limit stops the
// capture after 5 frames; the result is silence, not empty.
func TestRecorderSilenceTermination(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{false}))

	capture, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: 10 * time.Second,
		MaxSilence:  50 * time.Millisecond,
		Replay:      testFrames(t, 10),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(capture.Frames) == 0 {
		t.Fatal("No-speech capture must return the accumulated silence")
	}
	if len(capture.Frames) > 5 {
		t.Errorf("Capture = %d frames, want at most 5", len(capture.Frames))
	}
}

// A long silent replay stops early on the silence limit, well before the
// input or the duration cap is exhausted.
func TestRecorderLongSilentReplay(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{false}))

	capture, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: 10 * time.Second,
		MaxSilence:  time.Second,
		Replay:      testFrames(t, 3000),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(capture.Frames) >= 3000 {
		t.Errorf("Capture = %d frames, want early stop before 3000", len(capture.Frames))
	}
	if got := len(capture.Frames); got != 100 {
		t.Errorf("Capture = %d frames, want 100 (1s of silence)", got)
	}

	pcm, err := capture.PCM()
	if err != nil {
		t.Fatalf("PCM() error = %v", err)
	}
	if len(pcm) >= 3000*320 {
		t.Errorf("PCM = %d bytes, want fewer than %d", len(pcm), 3000*320)
	}
}

// Alternating noise/silence never accumulates enough trailing silence,
// so the capture consumes the whole replay input.
func TestRecorderAlternatingFrames(t *testing.T) {
	script := make([]bool, 20)
	for i := range script {
		script[i] = i%2 == 0
	}
	recorder := newTestRecorder(t, fake.NewScripted(script))

	capture, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: 10 * time.Second,
		MaxSilence:  50 * time.Millisecond,
		Replay:      testFrames(t, 20),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if got := len(capture.Frames); got != 20 {
		t.Errorf("Capture = %d frames, want all 20", got)
	}
}

// The duration bound holds for every configuration.
func TestRecorderDurationBound(t *testing.T) {
	for _, maxDuration := range []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, time.Second} {
		t.Run(maxDuration.String(), func(t *testing.T) {
			recorder := newTestRecorder(t, fake.NewScripted([]bool{true}))

			capture, err := recorder.Record(context.Background(), RecordOptions{
				MaxDuration: maxDuration,
				MaxSilence:  time.Hour,
				Replay:      testFrames(t, 200),
			})
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}

			if capture.Duration() > maxDuration {
				t.Errorf("Duration() = %v, exceeds limit %v", capture.Duration(), maxDuration)
			}
		})
	}
}

// The captured sequence is a prefix of the replay input, in order.
func TestRecorderOrderPreservation(t *testing.T) {
	frames := testFrames(t, 40)
	recorder := newTestRecorder(t, fake.NewRandom(0.5))

	capture, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: 10 * time.Second,
		MaxSilence:  50 * time.Millisecond,
		Replay:      frames,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(capture.Frames) > len(frames) {
		t.Fatalf("Capture = %d frames, more than input %d", len(capture.Frames), len(frames))
	}
	for i := range capture.Frames {
		if capture.Frames[i] != frames[i] {
			t.Fatalf("Frame %d is not the input frame at that position", i)
		}
	}
}

// Identical replay input and classifier behavior produce identical
// captures.
func TestRecorderReplayDeterministic(t *testing.T) {
	frames := testFrames(t, 50)

	run := func() []*rtc.AudioFrame {
		recorder := newTestRecorder(t, fake.NewRandom(0.4))
		capture, err := recorder.Record(context.Background(), RecordOptions{
			MaxDuration: 10 * time.Second,
			MaxSilence:  100 * time.Millisecond,
			Replay:      frames,
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		return capture.Frames
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("Runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !bytes.Equal(first[i].Data, second[i].Data) {
			t.Fatalf("Runs differ at frame %d", i)
		}
	}
}

func TestEncodePCMConcatenation(t *testing.T) {
	frames := []*rtc.AudioFrame{
		{Data: []byte{0x01, 0x02}},
		{Data: []byte{0x03, 0x04}},
	}

	pcm, err := EncodePCM(frames)
	if err != nil {
		t.Fatalf("EncodePCM() error = %v", err)
	}
	if !bytes.Equal(pcm, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("EncodePCM() = %x, want 01020304", pcm)
	}
}

func TestEncodePCMNilFrame(t *testing.T) {
	_, err := EncodePCM([]*rtc.AudioFrame{{Data: []byte{0x01, 0x02}}, nil})
	if err == nil {
		t.Fatal("Expected error for nil frame")
	}
	if !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("Error = %v, want ErrEncodeFailed", err)
	}
}

func TestCaptureWAVLength(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{false}))

	capture, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: 10 * time.Second,
		MaxSilence:  100 * time.Millisecond,
		Replay:      testFrames(t, 20),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	wavBytes, err := capture.WAV()
	if err != nil {
		t.Fatalf("WAV() error = %v", err)
	}

	var payload int
	for _, frame := range capture.Frames {
		payload += len(frame.Data)
	}
	if len(wavBytes) != 44+payload {
		t.Errorf("WAV length = %d, want %d", len(wavBytes), 44+payload)
	}
}

// failingSource simulates a device that cannot be opened.
func TestRecorderDeviceOpenFailure(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{false}))
	cause := errors.New("device busy")
	recorder.openLive = func(sampleRate int) (FrameSource, error) {
		return nil, fmt.Errorf("%w: %w", ErrRecordingFailed, cause)
	}

	_, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: time.Second,
		MaxSilence:  time.Second,
	})
	if err == nil {
		t.Fatal("Expected error for device open failure")
	}
	if !errors.Is(err, ErrRecordingFailed) {
		t.Errorf("Error = %v, want ErrRecordingFailed", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Error = %v, want wrapped cause preserved", err)
	}
}

// stallingSource blocks until its context is cancelled, like a live
// device with no audio arriving.
type stallingSource struct {
	closed bool
}

func (s *stallingSource) Next(ctx context.Context) (*rtc.AudioFrame, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *stallingSource) Close() error {
	s.closed = true
	return nil
}

func TestRecorderCancellation(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{false}))
	source := &stallingSource{}
	recorder.openLive = func(sampleRate int) (FrameSource, error) {
		return source, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	capture, err := recorder.Record(ctx, RecordOptions{
		MaxDuration: time.Minute,
		MaxSilence:  time.Second,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Error = %v, want context.Canceled", err)
	}
	if capture != nil {
		t.Error("Cancelled capture must not return partial audio")
	}
	if !source.closed {
		t.Error("Device source must be released on cancellation")
	}
}

// frameStream feeds frames like a live device and then fails, proving a
// mid-stream error surfaces as ErrRecordingFailed after cleanup.
type frameStream struct {
	frames []*rtc.AudioFrame
	pos    int
	fail   error
	closed bool
}

func (s *frameStream) Next(ctx context.Context) (*rtc.AudioFrame, error) {
	if s.pos >= len(s.frames) {
		return nil, fmt.Errorf("%w: %w", ErrRecordingFailed, s.fail)
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

func (s *frameStream) Close() error {
	s.closed = true
	return nil
}

func TestRecorderMidStreamFailure(t *testing.T) {
	recorder := newTestRecorder(t, fake.NewScripted([]bool{true}))
	cause := errors.New("stream disconnected")
	source := &frameStream{frames: testFrames(t, 5), fail: cause}
	recorder.openLive = func(sampleRate int) (FrameSource, error) {
		return source, nil
	}

	_, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: time.Minute,
		MaxSilence:  time.Second,
	})
	if !errors.Is(err, ErrRecordingFailed) {
		t.Fatalf("Error = %v, want ErrRecordingFailed", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Error = %v, want wrapped cause preserved", err)
	}
	if !source.closed {
		t.Error("Device source must be released on failure")
	}
}

func TestReplaySourceExhaustion(t *testing.T) {
	// Replay input shorter than any stop condition: capture returns
	// whatever was consumed when the source runs out.
	recorder := newTestRecorder(t, fake.NewScripted([]bool{true}))

	capture, err := recorder.Record(context.Background(), RecordOptions{
		MaxDuration: time.Minute,
		MaxSilence:  time.Minute,
		Replay:      testFrames(t, 7),
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if got := len(capture.Frames); got != 7 {
		t.Errorf("Capture = %d frames, want 7", got)
	}
}
