package voice

import (
	"context"
	"io"

	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// FrameSource supplies audio frames one at a time. Live sources suspend
// the caller until the next device frame arrives; replay sources return
// immediately. Next returns io.EOF when the source is exhausted.
//
// A source is owned by exactly one capture invocation; Close releases
// the underlying resource and is safe on every exit path.
type FrameSource interface {
	Next(ctx context.Context) (*rtc.AudioFrame, error)
	Close() error
}

// ReplaySource feeds a pre-recorded finite frame sequence with no
// suspension between frames. Given identical input and classifier
// behavior, a capture driven from a ReplaySource is fully deterministic.
type ReplaySource struct {
	frames []*rtc.AudioFrame
	pos    int
}

// NewReplaySource creates a source over the given ordered frames.
func NewReplaySource(frames []*rtc.AudioFrame) *ReplaySource {
	return &ReplaySource{frames: frames}
}

// Next returns the next frame in order, or io.EOF once exhausted.
func (r *ReplaySource) Next(ctx context.Context) (*rtc.AudioFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.frames) {
		return nil, io.EOF
	}
	frame := r.frames[r.pos]
	r.pos++
	return frame, nil
}

// Close is a no-op for replay sources.
func (r *ReplaySource) Close() error {
	return nil
}
