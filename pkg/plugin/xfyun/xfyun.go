// Package xfyun provides speech recognition backed by iFlytek's IAT
// websocket API. The service authenticates with an HMAC-SHA256 signed
// URL and expects audio as base64 chunks tagged first/continue/last.
package xfyun

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voiceloop/voiceloop/pkg/ai"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
	"github.com/voiceloop/voiceloop/pkg/plugin"
)

const (
	// DefaultHost is the iFlytek IAT endpoint host.
	DefaultHost = "iat-api.xfyun.cn"
	// DefaultPath is the IAT endpoint path.
	DefaultPath = "/v2/iat"

	// DefaultLanguage and DefaultAccent select Mandarin Chinese, the
	// language the IAT service is built for.
	DefaultLanguage = "zh_cn"
	DefaultAccent   = "mandarin"

	// DefaultVadEOS is the server-side end-of-speech timeout in ms.
	DefaultVadEOS = 10000
)

// Config holds the iFlytek application credentials and recognition
// parameters.
type Config struct {
	AppID     string
	APIKey    string
	APISecret string

	Host     string // defaults to DefaultHost
	Language string // defaults to DefaultLanguage
	Accent   string // defaults to DefaultAccent
	VadEOS   int    // defaults to DefaultVadEOS
}

// Recognizer implements streaming and batch speech recognition against
// the iFlytek IAT service.
type Recognizer struct {
	cfg    Config
	logger *slog.Logger
}

func newRecognizer(cfg map[string]any) (any, error) {
	appID, _ := cfg["app_id"].(string)
	apiKey, _ := cfg["api_key"].(string)
	apiSecret, _ := cfg["api_secret"].(string)
	c := Config{AppID: appID, APIKey: apiKey, APISecret: apiSecret}
	if lang, ok := cfg["language"].(string); ok {
		c.Language = lang
	}
	return NewRecognizer(c)
}

// NewRecognizer creates a recognizer from credentials, filling config
// defaults.
func NewRecognizer(cfg Config) (*Recognizer, error) {
	if cfg.AppID == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ai.NewFatalError(fmt.Errorf("missing credentials"),
			"xfyun requires app_id, api_key and api_secret")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Accent == "" {
		cfg.Accent = DefaultAccent
	}
	if cfg.VadEOS <= 0 {
		cfg.VadEOS = DefaultVadEOS
	}
	return &Recognizer{cfg: cfg, logger: slog.Default()}, nil
}

// signedURL builds the websocket URL with the HMAC-SHA256 authorization
// the IAT service requires. The signature covers the host, the request
// date and the request line.
func signedURL(host, path, apiKey, apiSecret string, now time.Time) string {
	date := now.UTC().Format(http.TimeFormat)

	origin := "host: " + host + "\n" +
		"date: " + date + "\n" +
		"GET " + path + " HTTP/1.1"

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(origin))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authOrigin := fmt.Sprintf(
		`api_key="%s", algorithm="%s", headers="%s", signature="%s"`,
		apiKey, "hmac-sha256", "host date request-line", signature)
	authorization := base64.StdEncoding.EncodeToString([]byte(authOrigin))

	q := url.Values{}
	q.Set("authorization", authorization)
	q.Set("date", date)
	q.Set("host", host)

	return "wss://" + host + path + "?" + q.Encode()
}

// NewStream dials the IAT endpoint and returns a live recognition
// session. The caller pushes frames and reads events until the channel
// closes.
func (r *Recognizer) NewStream(ctx context.Context, cfg stt.StreamConfig) (stt.Stream, error) {
	if cfg.SampleRate != 0 && cfg.SampleRate != 16000 {
		return nil, ai.NewFatalError(fmt.Errorf("unsupported sample rate %d", cfg.SampleRate),
			"xfyun IAT only accepts 16kHz audio")
	}

	wsURL := signedURL(r.cfg.Host, DefaultPath, r.cfg.APIKey, r.cfg.APISecret, time.Now())

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, ai.NewRecoverableError(err, fmt.Sprintf("failed to connect to xfyun: %v", err))
	}

	r.logger.Debug("Xfyun stream opened", slog.String("host", r.cfg.Host))

	s := newStream(conn, r.cfg, r.logger)
	go s.readLoop()
	return s, nil
}

// Capabilities returns the provider's capabilities.
func (r *Recognizer) Capabilities() stt.Capabilities {
	return stt.Capabilities{
		Streaming:          true,
		InterimResults:     true,
		SupportedLanguages: []string{"zh_cn", "en_us"},
		SampleRates:        []int{16000},
	}
}

func init() {
	plugin.Register(&plugin.Plugin{
		Kind:        "stt",
		Name:        "xfyun",
		Factory:     newRecognizer,
		Description: "iFlytek IAT streaming speech recognition",
	})
}
