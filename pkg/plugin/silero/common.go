// Package silero provides a Silero VAD classifier backed by the ONNX
// runtime. The classifier is compiled in with the silero build tag;
// without it a stub factory reports the plugin as unavailable and the
// energy classifier remains the default.
package silero

import (
	"os"
	"path/filepath"
)

const (
	// ModelFileName is the expected ONNX model file name
	ModelFileName = "silero_vad.onnx"
	// DefaultThreshold is the speech probability above which a frame
	// counts as speech
	DefaultThreshold = 0.5
	// modelWindow is the sample window Silero evaluates per inference
	// (32ms at 16kHz). Incoming 10ms frames slide through it.
	modelWindow = 512
)

// defaultModelPath returns the default location of the Silero model.
func defaultModelPath() string {
	modelPath := os.Getenv("VOICELOOP_MODEL_PATH")
	if modelPath == "" {
		homeDir, _ := os.UserHomeDir()
		modelPath = filepath.Join(homeDir, ".voiceloop", "models")
	}
	return filepath.Join(modelPath, ModelFileName)
}
