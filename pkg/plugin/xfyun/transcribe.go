package xfyun

import (
	"context"
	"fmt"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
	"github.com/voiceloop/voiceloop/pkg/audio/wav"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// Transcribe recognizes a complete WAV capture by replaying it through
// a streaming session and waiting for the final result.
func (r *Recognizer) Transcribe(ctx context.Context, wavAudio []byte) (string, error) {
	if len(wavAudio) <= wav.HeaderSize {
		return "", ai.NewFatalError(fmt.Errorf("empty audio"), "cannot transcribe empty audio")
	}
	pcm := wavAudio[wav.HeaderSize:]

	stream, err := r.NewStream(ctx, stt.StreamConfig{SampleRate: rtc.DefaultSampleRate})
	if err != nil {
		return "", err
	}

	frameBytes := rtc.FrameBytes(rtc.DefaultSampleRate)
	for i := 0; i < len(pcm); i += frameBytes {
		end := i + frameBytes
		if end > len(pcm) {
			end = len(pcm)
		}

		// Zero-pad a short trailing chunk to a full frame
		chunk := make([]byte, frameBytes)
		copy(chunk, pcm[i:end])

		frame, frameErr := rtc.NewAudioFrame(chunk, rtc.DefaultSampleRate,
			time.Duration(i/frameBytes)*10*time.Millisecond)
		if frameErr != nil {
			return "", frameErr
		}
		if err := stream.Push(frame); err != nil {
			return "", err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return "", err
	}

	var transcript string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event, ok := <-stream.Events():
			if !ok {
				return transcript, nil
			}
			switch event.Type {
			case stt.SpeechEventError:
				return "", event.Error
			case stt.SpeechEventFinal:
				transcript = event.Text
			}
		}
	}
}
