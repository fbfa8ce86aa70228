package voice

import (
	"sync"
	"testing"
)

func TestCaptureGate(t *testing.T) {
	var gate CaptureGate

	if gate.Blocked() {
		t.Error("New gate should not block capture")
	}

	gate.SetPlaying(true)
	if !gate.Blocked() {
		t.Error("Gate should block capture during playback")
	}

	gate.SetPlaying(false)
	if gate.Blocked() {
		t.Error("Gate should unblock once playback ends")
	}
}

func TestCaptureGateConcurrency(t *testing.T) {
	var gate CaptureGate
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(playing bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gate.SetPlaying(playing)
			}
		}(i%2 == 0)
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = gate.Blocked()
			}
		}()
	}

	wg.Wait()
}
