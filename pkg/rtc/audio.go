package rtc

import (
	"fmt"
	"time"
)

// DefaultSampleRate is the capture sample rate used throughout the
// pipeline. 16 kHz mono is what both the VAD and Whisper expect.
const DefaultSampleRate = 16000

// AudioFrame represents exactly 10 ms of mono PCM audio.
// Len(Data) == Samples * 2.
// Fields are immutable after creation; the capture session appends
// frames but never rewrites them.
type AudioFrame struct {
	Data       []byte        // 16-bit PCM, little-endian
	SampleRate int           // 16 000 or 48 000
	Samples    int           // SampleRate / 100
	Timestamp  time.Duration // offset from session start, optional
}

// NewAudioFrame creates a new AudioFrame with the specified parameters.
// Data length is validated against the 10ms mono frame geometry. A
// mismatch is a programming error upstream and is surfaced immediately.
func NewAudioFrame(data []byte, sampleRate int, timestamp time.Duration) (*AudioFrame, error) {
	samples := sampleRate / 100
	expectedLen := samples * 2

	if len(data) != expectedLen {
		return nil, fmt.Errorf("AudioFrame data length mismatch: got %d bytes, expected %d bytes for %dHz mono 10ms audio",
			len(data), expectedLen, sampleRate)
	}

	return &AudioFrame{
		Data:       data,
		SampleRate: sampleRate,
		Samples:    samples,
		Timestamp:  timestamp,
	}, nil
}

// Clone creates a deep copy of the AudioFrame.
func (f *AudioFrame) Clone() *AudioFrame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)

	return &AudioFrame{
		Data:       data,
		SampleRate: f.SampleRate,
		Samples:    f.Samples,
		Timestamp:  f.Timestamp,
	}
}

// Duration returns the duration represented by this frame (always 10ms).
func (f *AudioFrame) Duration() time.Duration {
	return 10 * time.Millisecond
}

// FrameBytes returns the payload size in bytes of a 10ms mono frame at
// the given sample rate.
func FrameBytes(sampleRate int) int {
	return sampleRate / 100 * 2
}
