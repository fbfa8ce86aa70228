package voice

import "sync/atomic"

// CaptureGate blocks capture while assistant playback is active, so the
// microphone does not pick up the assistant's own synthesized speech.
// Safe for concurrent use: the playback goroutine flips the flag while
// the dialogue loop polls it.
type CaptureGate struct {
	playing atomic.Bool
}

// SetPlaying marks whether synthesized audio is currently playing.
func (g *CaptureGate) SetPlaying(playing bool) {
	g.playing.Store(playing)
}

// Blocked returns true while capture should not run.
func (g *CaptureGate) Blocked() bool {
	return g.playing.Load()
}
