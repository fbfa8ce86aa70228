package xfyun

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
	"github.com/voiceloop/voiceloop/pkg/rtc"
)

// Frame status tags the IAT protocol uses to delimit an utterance.
const (
	statusFirstFrame    = 0
	statusContinueFrame = 1
	statusLastFrame     = 2
)

const audioFormat = "audio/L16;rate=16000"

type commonArgs struct {
	AppID string `json:"app_id"`
}

type businessArgs struct {
	Domain   string `json:"domain"`
	Language string `json:"language"`
	Accent   string `json:"accent"`
	Vinfo    int    `json:"vinfo"`
	VadEOS   int    `json:"vad_eos"`
}

type frameData struct {
	Status   int    `json:"status"`
	Format   string `json:"format"`
	Encoding string `json:"encoding"`
	Audio    string `json:"audio"`
}

// firstFrame carries the session parameters alongside the first audio
// chunk; every later frame is data only.
type firstFrame struct {
	Common   commonArgs   `json:"common"`
	Business businessArgs `json:"business"`
	Data     frameData    `json:"data"`
}

type dataFrame struct {
	Data frameData `json:"data"`
}

type iatResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Sid     string `json:"sid"`
	Data    struct {
		Status int `json:"status"`
		Result struct {
			Ws []struct {
				Cw []struct {
					W string `json:"w"`
				} `json:"cw"`
			} `json:"ws"`
		} `json:"result"`
	} `json:"data"`
}

// recognitionStream is one utterance against the IAT service. Frames
// go out tagged first/continue; CloseSend tags the last frame and the
// read loop delivers events until the server reports the final result.
type recognitionStream struct {
	conn   *websocket.Conn
	cfg    Config
	logger *slog.Logger
	events chan stt.SpeechEvent

	mu        sync.Mutex
	started    bool
	sendDone   bool
	transcript string
}

func newStream(conn *websocket.Conn, cfg Config, logger *slog.Logger) *recognitionStream {
	return &recognitionStream{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		events: make(chan stt.SpeechEvent, 16),
	}
}

// Push sends one audio frame. The first pushed frame carries the
// session parameters.
func (s *recognitionStream) Push(frame *rtc.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendDone {
		return fmt.Errorf("stream already closed for sending")
	}

	data := frameData{
		Format:   audioFormat,
		Encoding: "raw",
		Audio:    base64.StdEncoding.EncodeToString(frame.Data),
	}

	var err error
	if !s.started {
		data.Status = statusFirstFrame
		err = s.conn.WriteJSON(firstFrame{
			Common: commonArgs{AppID: s.cfg.AppID},
			Business: businessArgs{
				Domain:   "iat",
				Language: s.cfg.Language,
				Accent:   s.cfg.Accent,
				Vinfo:    1,
				VadEOS:   s.cfg.VadEOS,
			},
			Data: data,
		})
		s.started = true
	} else {
		data.Status = statusContinueFrame
		err = s.conn.WriteJSON(dataFrame{Data: data})
	}
	if err != nil {
		return ai.NewRecoverableError(err, fmt.Sprintf("failed to send audio frame: %v", err))
	}
	return nil
}

// CloseSend sends the last-frame marker. Events keep arriving until the
// server finishes and the events channel closes.
func (s *recognitionStream) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendDone {
		return nil
	}
	s.sendDone = true

	err := s.conn.WriteJSON(dataFrame{Data: frameData{
		Status:   statusLastFrame,
		Format:   audioFormat,
		Encoding: "raw",
	}})
	if err != nil {
		return ai.NewRecoverableError(err, fmt.Sprintf("failed to send last frame: %v", err))
	}
	return nil
}

// Events returns the stream's event channel.
func (s *recognitionStream) Events() <-chan stt.SpeechEvent {
	return s.events
}

// readLoop reads server messages until the final result or an error,
// then closes the events channel and the connection.
func (s *recognitionStream) readLoop() {
	defer close(s.events)
	defer s.conn.Close()

	for {
		var resp iatResponse
		if err := s.conn.ReadJSON(&resp); err != nil {
			s.events <- stt.SpeechEvent{
				Type:      stt.SpeechEventError,
				Timestamp: time.Now().UnixMilli(),
				Error:     ai.NewRecoverableError(err, fmt.Sprintf("failed to read recognition result: %v", err)),
			}
			return
		}

		if resp.Code != 0 {
			s.logger.Error("Xfyun recognition error",
				slog.String("sid", resp.Sid),
				slog.Int("code", resp.Code),
				slog.String("message", resp.Message))
			s.events <- stt.SpeechEvent{
				Type:      stt.SpeechEventError,
				Timestamp: time.Now().UnixMilli(),
				Error: ai.NewRecoverableError(
					fmt.Errorf("xfyun error %d: %s", resp.Code, resp.Message),
					resp.Message),
			}
			return
		}

		var text string
		for _, w := range resp.Data.Result.Ws {
			for _, cw := range w.Cw {
				text += cw.W
			}
		}

		s.mu.Lock()
		s.transcript += text
		full := s.transcript
		s.mu.Unlock()

		if resp.Data.Status == statusLastFrame {
			s.logger.Debug("Xfyun recognition complete",
				slog.String("sid", resp.Sid),
				slog.Int("text_len", len(full)))
			s.events <- stt.SpeechEvent{
				Type:      stt.SpeechEventFinal,
				Text:      full,
				IsFinal:   true,
				Timestamp: time.Now().UnixMilli(),
			}
			return
		}

		s.events <- stt.SpeechEvent{
			Type:      stt.SpeechEventInterim,
			Text:      full,
			Timestamp: time.Now().UnixMilli(),
		}
	}
}
