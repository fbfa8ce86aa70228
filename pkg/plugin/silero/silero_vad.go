//go:build silero

package silero

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/voiceloop/voiceloop/pkg/ai/vad"
	"github.com/voiceloop/voiceloop/pkg/plugin"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

var (
	ortOnce    sync.Once
	ortInitErr error
)

// ensureOrtEnv initializes the ONNX runtime environment exactly once
// per process.
func ensureOrtEnv() error {
	ortOnce.Do(func() {
		if libPath := os.Getenv("ONNXRUNTIME_LIB"); libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		} else if runtime.GOOS == "darwin" {
			// Default to Homebrew path on macOS as fallback
			ort.SetSharedLibraryPath("/opt/homebrew/lib/libonnxruntime.dylib")
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Classifier runs the Silero VAD ONNX model. Silero is an LSTM model:
// it carries recurrent state between inferences, so a Classifier is
// scoped to one audio stream at a time, like a capture session.
//
// Incoming 10ms frames slide through a 512-sample window; each call
// runs one inference over the current window.
type Classifier struct {
	mu        sync.Mutex
	threshold float32

	window []float32 // last modelWindow samples, zero-padded at start
	state  []float32 // LSTM state, carried between inferences

	session   *ort.AdvancedSession
	inTensor  *ort.Tensor[float32]
	srTensor  *ort.Tensor[int64]
	stTensor  *ort.Tensor[float32]
	outTensor *ort.Tensor[float32]
	outState  *ort.Tensor[float32]
}

func newSileroClassifier(cfg map[string]any) (any, error) {
	threshold := float32(DefaultThreshold)
	if v, ok := cfg["threshold"].(float64); ok && v > 0 {
		threshold = float32(v)
	}
	modelPath, _ := cfg["model_path"].(string)
	return NewClassifier(modelPath, threshold)
}

// NewClassifier loads the Silero model and prepares an inference
// session bound to reusable tensors.
func NewClassifier(modelPath string, threshold float32) (*Classifier, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if modelPath == "" {
		modelPath = defaultModelPath()
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("silero model not found at %s: %w", modelPath, err)
	}

	if err := ensureOrtEnv(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	c := &Classifier{
		threshold: threshold,
		window:    make([]float32, modelWindow),
		state:     make([]float32, 2*1*128),
	}

	var err error
	c.inTensor, err = ort.NewTensor(ort.NewShape(1, modelWindow), c.window)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	c.srTensor, err = ort.NewTensor(ort.NewShape(1), []int64{16000})
	if err != nil {
		return nil, fmt.Errorf("failed to create sample rate tensor: %w", err)
	}
	c.stTensor, err = ort.NewTensor(ort.NewShape(2, 1, 128), c.state)
	if err != nil {
		return nil, fmt.Errorf("failed to create state tensor: %w", err)
	}
	c.outTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	c.outState, err = ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 128))
	if err != nil {
		return nil, fmt.Errorf("failed to create output state tensor: %w", err)
	}

	c.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		[]ort.Value{c.inTensor, c.stTensor, c.srTensor},
		[]ort.Value{c.outTensor, c.outState},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return c, nil
}

// IsSpeech slides the frame into the model window, runs one inference
// and compares the speech probability against the threshold.
func (c *Classifier) IsSpeech(frame []byte, sampleRate int) (bool, error) {
	if sampleRate != 16000 {
		return false, fmt.Errorf("%w: silero VAD requires 16kHz audio, got %dHz", vad.ErrFatal, sampleRate)
	}
	if len(frame) != rtc.FrameBytes(sampleRate) {
		return false, fmt.Errorf("%w: frame is %d bytes, expected %d", vad.ErrFatal, len(frame), rtc.FrameBytes(sampleRate))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Shift the window left by one frame and append the new samples.
	samples := len(frame) / 2
	copy(c.window, c.window[samples:])
	for i := 0; i < samples; i++ {
		s := int16(uint16(frame[i*2]) | uint16(frame[i*2+1])<<8)
		c.window[modelWindow-samples+i] = float32(s) / 32768.0
	}
	copy(c.inTensor.GetData(), c.window)

	if err := c.session.Run(); err != nil {
		return false, fmt.Errorf("%w: silero inference failed: %v", vad.ErrRecoverable, err)
	}

	// Carry the recurrent state into the next call.
	copy(c.stTensor.GetData(), c.outState.GetData())

	probability := c.outTensor.GetData()[0]
	return probability > c.threshold, nil
}

// Capabilities returns the classifier's capabilities.
func (c *Classifier) Capabilities() vad.Capabilities {
	return vad.Capabilities{
		SampleRates:   []int{16000},
		FrameDuration: 10 * time.Millisecond,
		Sensitivity:   c.threshold,
	}
}

// Close releases the ONNX session and tensors.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	for _, t := range []interface{ Destroy() error }{c.inTensor, c.srTensor, c.stTensor, c.outTensor, c.outState} {
		if t != nil {
			t.Destroy()
		}
	}
	return nil
}

func init() {
	plugin.Register(&plugin.Plugin{
		Kind:        "vad",
		Name:        "silero",
		Factory:     newSileroClassifier,
		Description: "Silero VAD (ONNX)",
	})
}
