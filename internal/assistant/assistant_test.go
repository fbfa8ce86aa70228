package assistant

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/voiceloop/voiceloop/pkg/ai/llm"
	fakellm "github.com/voiceloop/voiceloop/pkg/ai/llm/fake"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
	fakestt "github.com/voiceloop/voiceloop/pkg/ai/stt/fake"
	faketts "github.com/voiceloop/voiceloop/pkg/ai/tts/fake"
	"github.com/voiceloop/voiceloop/pkg/ai/vad/fake"
	"github.com/voiceloop/voiceloop/pkg/audio/wav"
	"github.com/voiceloop/voiceloop/pkg/rtc"
	"github.com/voiceloop/voiceloop/pkg/voice"
)

// fakePlayer records played audio and whether the capture gate was held
// during playback.
type fakePlayer struct {
	mu          sync.Mutex
	played      [][]byte
	err         error
	gate        *voice.CaptureGate
	gateWasHeld bool
}

func (p *fakePlayer) Play(ctx context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil && p.gate.Blocked() {
		p.gateWasHeld = true
	}
	p.played = append(p.played, audio)
	return p.err
}

func (p *fakePlayer) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}

// emptyTranscriber simulates a recognizer that heard only silence.
type emptyTranscriber struct{}

func (emptyTranscriber) Transcribe(ctx context.Context, wavAudio []byte) (string, error) {
	return "", nil
}

func (emptyTranscriber) Capabilities() stt.Capabilities {
	return stt.Capabilities{}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// replayFrames builds a short utterance: a few frames of audio followed
// by nothing, so the scripted classifier decides when it ends.
func replayFrames(t *testing.T, count int) []*rtc.AudioFrame {
	t.Helper()
	frames := make([]*rtc.AudioFrame, count)
	for i := range frames {
		data := make([]byte, rtc.FrameBytes(rtc.DefaultSampleRate))
		frame, err := rtc.NewAudioFrame(data, rtc.DefaultSampleRate, time.Duration(i)*10*time.Millisecond)
		if err != nil {
			t.Fatalf("NewAudioFrame() error = %v", err)
		}
		frames[i] = frame
	}
	return frames
}

type testDeps struct {
	assistant   *Assistant
	transcriber *fakestt.FakeTranscriber
	llm         *fakellm.FakeLLM
	tts         *faketts.FakeTTS
	player      *fakePlayer
}

func newTestAssistant(t *testing.T, transcript string) *testDeps {
	t.Helper()

	// Speech for 5 frames, then silence until the gate closes.
	classifier := fake.NewScripted([]bool{true, true, true, true, true, false})
	recorder, err := voice.NewRecorder(voice.RecorderConfig{
		Classifier: classifier,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	transcriber := fakestt.NewFakeTranscriber(transcript)
	chatLLM := fakellm.NewFakeLLM("Hi there, how can I help?")
	synth := faketts.NewFakeTTS([]byte("synth-audio"))
	player := &fakePlayer{}

	a, err := New(Config{
		Recorder:    recorder,
		Transcriber: transcriber,
		LLM:         chatLLM,
		TTS:         synth,
		Player:      player,
		RecordOptions: voice.RecordOptions{
			MaxDuration: time.Second,
			MaxSilence:  50 * time.Millisecond,
			Replay:      replayFrames(t, 20),
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	player.gate = a.Gate()

	return &testDeps{
		assistant:   a,
		transcriber: transcriber,
		llm:         chatLLM,
		tts:         synth,
		player:      player,
	}
}

func TestNewRequiresProviders(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error without providers")
	}
}

func TestRunTurnFullCycle(t *testing.T) {
	deps := newTestAssistant(t, "what's the weather like")
	ctx := context.Background()

	if err := deps.assistant.RunTurn(ctx); err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}

	// The transcriber got a WAV container, not raw PCM.
	audio := deps.transcriber.LastAudio()
	if len(audio) <= wav.HeaderSize {
		t.Fatalf("Transcriber received %d bytes, expected a WAV container", len(audio))
	}
	if !bytes.Equal(audio[0:4], []byte("RIFF")) {
		t.Error("Transcriber audio does not start with a RIFF header")
	}

	// The model saw the system prompt and the transcript.
	reqs := deps.llm.Requests()
	if len(reqs) != 1 {
		t.Fatalf("LLM received %d requests, want 1", len(reqs))
	}
	msgs := reqs[0].Messages
	if len(msgs) != 2 || msgs[0].Role != llm.RoleSystem || msgs[1].Content != "what's the weather like" {
		t.Errorf("Unexpected chat messages: %+v", msgs)
	}

	// The reply was synthesized and played.
	texts := deps.tts.Texts()
	if len(texts) != 1 || texts[0] != "Hi there, how can I help?" {
		t.Errorf("Unexpected synthesis texts: %v", texts)
	}
	played := deps.player.Played()
	if len(played) != 1 || !bytes.Equal(played[0], []byte("synth-audio")) {
		t.Errorf("Unexpected played audio: %v", played)
	}
}

func TestRunTurnHoldsGateDuringPlayback(t *testing.T) {
	deps := newTestAssistant(t, "hello")

	if err := deps.assistant.RunTurn(context.Background()); err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}

	if !deps.player.gateWasHeld {
		t.Error("Expected the capture gate to be held during playback")
	}
	if deps.assistant.Gate().Blocked() {
		t.Error("Expected the gate to be released after playback")
	}
}

func TestRunTurnAccumulatesHistory(t *testing.T) {
	deps := newTestAssistant(t, "first question")
	ctx := context.Background()

	if err := deps.assistant.RunTurn(ctx); err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}
	if err := deps.assistant.RunTurn(ctx); err != nil {
		t.Fatalf("RunTurn() error = %v", err)
	}

	// system + 2 * (user + assistant)
	history := deps.assistant.History()
	if len(history) != 5 {
		t.Fatalf("History has %d messages, want 5", len(history))
	}
	if history[0].Role != llm.RoleSystem {
		t.Errorf("History[0].Role = %q, want system", history[0].Role)
	}
	if history[2].Role != llm.RoleAssistant || history[4].Role != llm.RoleAssistant {
		t.Error("Expected assistant replies at positions 2 and 4")
	}
}

func TestRunTurnNoSpeech(t *testing.T) {
	quietDeps := newTestAssistant(t, "ignored")
	// An empty transcript means a quiet capture.
	quietDeps.assistant.transcriber = emptyTranscriber{}

	err := quietDeps.assistant.RunTurn(context.Background())
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("RunTurn() error = %v, want ErrNoSpeech", err)
	}

	// Nothing downstream ran and the history is untouched.
	if len(quietDeps.llm.Requests()) != 0 {
		t.Error("LLM should not be called on a quiet turn")
	}
	if len(quietDeps.assistant.History()) != 1 {
		t.Error("History should only hold the system prompt after a quiet turn")
	}
}

func TestRunTurnChatFailureRollsBackHistory(t *testing.T) {
	deps := newTestAssistant(t, "hello")
	deps.llm.FailWith(errors.New("model overloaded"))

	if err := deps.assistant.RunTurn(context.Background()); err == nil {
		t.Fatal("Expected error from failing LLM")
	}

	if len(deps.assistant.History()) != 1 {
		t.Errorf("History has %d messages after failed chat, want 1", len(deps.assistant.History()))
	}
	if len(deps.tts.Texts()) != 0 {
		t.Error("TTS should not run after a failed chat")
	}
}

func TestRunTurnSynthesisFailure(t *testing.T) {
	deps := newTestAssistant(t, "hello")
	deps.tts.FailWith(errors.New("voice unavailable"))

	if err := deps.assistant.RunTurn(context.Background()); err == nil {
		t.Fatal("Expected error from failing TTS")
	}
	if len(deps.player.Played()) != 0 {
		t.Error("Player should not run after failed synthesis")
	}
	if deps.assistant.Gate().Blocked() {
		t.Error("Gate must not be left held after a failure")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	deps := newTestAssistant(t, "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := deps.assistant.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
