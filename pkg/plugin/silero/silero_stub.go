//go:build !silero

package silero

import (
	"fmt"

	"github.com/voiceloop/voiceloop/pkg/plugin"
)

// Stub factory that returns an error when the silero tag is not used.
func newSileroClassifier(cfg map[string]any) (any, error) {
	return nil, fmt.Errorf("silero VAD plugin not available (build with -tags=silero)")
}

func init() {
	plugin.Register(&plugin.Plugin{
		Kind:        "vad",
		Name:        "silero",
		Factory:     newSileroClassifier,
		Description: "Silero VAD (disabled - build with -tags=silero to enable)",
	})
}
