package voice

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// deviceFrameBuffer is how many 10ms frames the device callback may run
// ahead of the consumer before the stream is considered stalled.
const deviceFrameBuffer = 64

// deviceBusy enforces exclusive device ownership: one live capture at a
// time, process wide.
var deviceBusy atomic.Bool

// deviceSource is a live FrameSource over the default input device.
// The PortAudio callback runs on the stream's own thread and only
// copies samples into a buffered channel; all classification happens
// on the consumer side.
type deviceSource struct {
	stream     *portaudio.Stream
	sampleRate int
	frames     chan *rtc.AudioFrame
	errs       chan error
	start      time.Time
	closeOnce  sync.Once
	closeErr   error
}

// openDeviceSource opens the default input device at the given sample
// rate with 10ms buffers. Any failure is wrapped in ErrRecordingFailed.
func openDeviceSource(sampleRate int) (FrameSource, error) {
	if !deviceBusy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: input device already in use by another capture", ErrRecordingFailed)
	}

	if err := portaudio.Initialize(); err != nil {
		deviceBusy.Store(false)
		return nil, fmt.Errorf("%w: %w", ErrRecordingFailed, err)
	}

	src := &deviceSource{
		sampleRate: sampleRate,
		frames:     make(chan *rtc.AudioFrame, deviceFrameBuffer),
		errs:       make(chan error, 1),
		start:      time.Now(),
	}

	frameSamples := sampleRate / 100
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frameSamples, src.onFrame)
	if err != nil {
		portaudio.Terminate()
		deviceBusy.Store(false)
		return nil, fmt.Errorf("%w: open input stream: %w", ErrRecordingFailed, err)
	}
	src.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		deviceBusy.Store(false)
		return nil, fmt.Errorf("%w: start input stream: %w", ErrRecordingFailed, err)
	}

	return src, nil
}

// onFrame runs on the PortAudio stream thread. It must not block: the
// frame is copied and handed off, or the stream is reported stalled.
func (d *deviceSource) onFrame(in []int16) {
	data := make([]byte, len(in)*2)
	for i, sample := range in {
		binary.LittleEndian.PutUint16(data[i*2:i*2+2], uint16(sample))
	}

	frame, err := rtc.NewAudioFrame(data, d.sampleRate, time.Since(d.start))
	if err != nil {
		select {
		case d.errs <- err:
		default:
		}
		return
	}

	select {
	case d.frames <- frame:
	default:
		select {
		case d.errs <- fmt.Errorf("capture stalled: dropped a device frame after %d buffered", deviceFrameBuffer):
		default:
		}
	}
}

// Next returns the next device frame, suspending the caller until one
// arrives, the context is cancelled, or the stream fails.
func (d *deviceSource) Next(ctx context.Context) (*rtc.AudioFrame, error) {
	select {
	case frame := <-d.frames:
		return frame, nil
	case err := <-d.errs:
		return nil, fmt.Errorf("%w: %w", ErrRecordingFailed, err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops and releases the device. Safe to call multiple times and
// on every exit path.
func (d *deviceSource) Close() error {
	d.closeOnce.Do(func() {
		if err := d.stream.Stop(); err != nil {
			d.closeErr = fmt.Errorf("stop input stream: %w", err)
		}
		if err := d.stream.Close(); err != nil && d.closeErr == nil {
			d.closeErr = fmt.Errorf("close input stream: %w", err)
		}
		portaudio.Terminate()
		deviceBusy.Store(false)
	})
	return d.closeErr
}

// Devices lists the available input devices, for the CLI devices
// command. The PortAudio library is initialized and released around the
// query.
func Devices() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordingFailed, err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordingFailed, err)
	}

	var names []string
	for _, info := range infos {
		if info.MaxInputChannels > 0 {
			names = append(names, info.Name)
		}
	}
	return names, nil
}
