package vad

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// DefaultEnergyThreshold is the normalized RMS level above which a frame
// counts as speech. Tuned against typical laptop microphones at 16kHz.
const DefaultEnergyThreshold = 0.015

// EnergyClassifier is an RMS-energy voice activity classifier. It needs
// no model files and is the default when the silero plugin is not built
// in. Stateless: every call is judged on the frame alone.
type EnergyClassifier struct {
	threshold float32
}

// NewEnergyClassifier creates an energy-based classifier. A non-positive
// threshold selects DefaultEnergyThreshold.
func NewEnergyClassifier(threshold float32) *EnergyClassifier {
	if threshold <= 0 {
		threshold = DefaultEnergyThreshold
	}
	return &EnergyClassifier{threshold: threshold}
}

// IsSpeech reports whether the frame's RMS energy exceeds the threshold.
// The frame must be exactly one 10ms block of 16-bit mono samples.
func (e *EnergyClassifier) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	if sampleRate <= 0 {
		return false, fmt.Errorf("%w: invalid sample rate %d", ErrFatal, sampleRate)
	}
	if len(frame) != rtc.FrameBytes(sampleRate) {
		return false, fmt.Errorf("%w: frame is %d bytes, expected %d for %dHz",
			ErrFatal, len(frame), rtc.FrameBytes(sampleRate), sampleRate)
	}
	return e.rmsEnergy(frame) > e.threshold, nil
}

// Capabilities returns the classifier's capabilities.
func (e *EnergyClassifier) Capabilities() Capabilities {
	return Capabilities{
		SampleRates:   []int{8000, 16000, 48000},
		FrameDuration: 10 * time.Millisecond,
		Sensitivity:   e.threshold,
	}
}

// rmsEnergy computes the normalized RMS energy of an audio frame.
func (e *EnergyClassifier) rmsEnergy(data []byte) float32 {
	if len(data) < 2 {
		return 0
	}

	var sum float64
	samples := len(data) / 2 // 16-bit samples

	for i := 0; i < samples; i++ {
		sample := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		sum += float64(sample) * float64(sample)
	}

	meanSquare := sum / float64(samples)
	rms := math.Sqrt(meanSquare)
	return float32(rms) / 32768.0 // Normalize to 0-1 range
}
