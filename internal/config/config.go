// Package config loads assistant configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a setting unset.
const (
	DefaultModelName   = "gpt-4o-mini"
	DefaultVoiceName   = "alloy"
	DefaultSampleRate  = 16000
	DefaultMaxDuration = 60 * time.Second
	DefaultMaxSilence  = 1 * time.Second
)

// Config holds every runtime setting of the assistant.
type Config struct {
	// OpenAI or Azure OpenAI. When AzureEndpoint is set the client
	// speaks to an Azure deployment instead of the public API.
	OpenAIAPIKey    string
	AzureAPIKey     string
	AzureEndpoint   string
	AzureAPIVersion string
	ModelName       string
	VoiceName       string

	// iFlytek IAT credentials, used when the xfyun recognizer is
	// selected.
	XfyunAppID     string
	XfyunAPIKey    string
	XfyunAPISecret string

	// Capture behavior.
	SampleRate  int
	MaxDuration time.Duration
	MaxSilence  time.Duration

	// Provider selection: stt provider name from the plugin registry.
	STTProvider string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over file entries.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AzureAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureAPIVersion: os.Getenv("AZURE_API_VERSION"),
		ModelName:       getEnv("MODEL_NAME", DefaultModelName),
		VoiceName:       getEnv("VOICE_NAME", DefaultVoiceName),
		XfyunAppID:      os.Getenv("XH_APPID"),
		XfyunAPIKey:     os.Getenv("XH_APIKey"),
		XfyunAPISecret:  os.Getenv("XH_APISecret"),
		STTProvider:     getEnv("STT_PROVIDER", "openai"),
	}

	var err error
	if cfg.SampleRate, err = getEnvInt("SAMPLE_RATE", DefaultSampleRate); err != nil {
		return nil, err
	}
	if cfg.MaxDuration, err = getEnvDuration("MAX_RECORD_DURATION", DefaultMaxDuration); err != nil {
		return nil, err
	}
	if cfg.MaxSilence, err = getEnvDuration("MAX_SILENCE_DURATION", DefaultMaxSilence); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected providers have the credentials
// they need.
func (c *Config) Validate() error {
	if c.UseAzure() {
		if c.AzureAPIKey == "" {
			return fmt.Errorf("AZURE_OPENAI_API_KEY is required when AZURE_OPENAI_ENDPOINT is set")
		}
		if c.AzureAPIVersion == "" {
			return fmt.Errorf("AZURE_API_VERSION is required when AZURE_OPENAI_ENDPOINT is set")
		}
	} else if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	if c.STTProvider == "xfyun" {
		if c.XfyunAppID == "" || c.XfyunAPIKey == "" || c.XfyunAPISecret == "" {
			return fmt.Errorf("XH_APPID, XH_APIKey and XH_APISecret are required for the xfyun recognizer")
		}
	}

	if c.SampleRate <= 0 || c.SampleRate%100 != 0 {
		return fmt.Errorf("sample rate %d does not divide into 10ms frames", c.SampleRate)
	}

	return nil
}

// UseAzure reports whether the OpenAI client should target an Azure
// deployment.
func (c *Config) UseAzure() bool {
	return c.AzureEndpoint != ""
}

// OpenAIPluginConfig builds the factory config for the openai plugins.
func (c *Config) OpenAIPluginConfig() map[string]any {
	cfg := map[string]any{
		"model": c.ModelName,
		"voice": c.VoiceName,
	}
	if c.UseAzure() {
		cfg["api_key"] = c.AzureAPIKey
		cfg["azure_endpoint"] = c.AzureEndpoint
		cfg["api_version"] = c.AzureAPIVersion
	} else {
		cfg["api_key"] = c.OpenAIAPIKey
	}
	return cfg
}

// XfyunPluginConfig builds the factory config for the xfyun recognizer.
func (c *Config) XfyunPluginConfig() map[string]any {
	return map[string]any{
		"app_id":     c.XfyunAppID,
		"api_key":    c.XfyunAPIKey,
		"api_secret": c.XfyunAPISecret,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
