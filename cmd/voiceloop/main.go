package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voiceloop/voiceloop/internal/assistant"
	"github.com/voiceloop/voiceloop/internal/config"
	"github.com/voiceloop/voiceloop/pkg/ai/llm"
	"github.com/voiceloop/voiceloop/pkg/ai/stt"
	"github.com/voiceloop/voiceloop/pkg/ai/tts"
	"github.com/voiceloop/voiceloop/pkg/ai/vad"
	"github.com/voiceloop/voiceloop/pkg/plugin"
	_ "github.com/voiceloop/voiceloop/pkg/plugin/openai" // Import to register OpenAI plugins
	_ "github.com/voiceloop/voiceloop/pkg/plugin/silero" // Import to register silero plugin
	_ "github.com/voiceloop/voiceloop/pkg/plugin/xfyun"  // Import to register xfyun plugin
	"github.com/voiceloop/voiceloop/pkg/version"
	"github.com/voiceloop/voiceloop/pkg/voice"
)

var rootCmd = &cobra.Command{
	Use:   "voiceloop",
	Short: "Voiceloop - a voice-activity-gated conversational assistant",
	Long: `voiceloop captures speech from the microphone, stops on its own when you
stop talking, and runs the capture through speech recognition, a chat
model and speech synthesis.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo())
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		names, err := voice.Devices()
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("No input devices found")
			return nil
		}
		for i, name := range names {
			fmt.Printf("%2d: %s\n", i, name)
		}
		return nil
	},
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Capture one utterance and save it as a WAV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		vadName, _ := cmd.Flags().GetString("vad")

		logger := setupLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		recorder, err := buildRecorder(cfg, vadName, logger)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		capture, err := recorder.Record(ctx, voice.RecordOptions{
			MaxDuration: cfg.MaxDuration,
			MaxSilence:  cfg.MaxSilence,
		})
		if err != nil {
			return err
		}

		wavAudio, err := capture.WAV()
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, wavAudio, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}

		logger.Info("Capture saved",
			slog.String("path", output),
			slog.Duration("duration", capture.Duration()),
			slog.Int("bytes", len(wavAudio)))
		return nil
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Capture one utterance and print the transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		vadName, _ := cmd.Flags().GetString("vad")
		providerName, _ := cmd.Flags().GetString("provider")

		logger := setupLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if providerName != "" {
			cfg.STTProvider = providerName
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		recorder, err := buildRecorder(cfg, vadName, logger)
		if err != nil {
			return err
		}
		transcriber, err := buildTranscriber(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		capture, err := recorder.Record(ctx, voice.RecordOptions{
			MaxDuration: cfg.MaxDuration,
			MaxSilence:  cfg.MaxSilence,
		})
		if err != nil {
			return err
		}

		wavAudio, err := capture.WAV()
		if err != nil {
			return err
		}

		transcript, err := transcriber.Transcribe(ctx, wavAudio)
		if err != nil {
			return err
		}
		if transcript == "" {
			fmt.Println("(no speech detected)")
			return nil
		}
		fmt.Println(transcript)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the conversational assistant loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		vadName, _ := cmd.Flags().GetString("vad")
		once, _ := cmd.Flags().GetBool("once")
		replyDir, _ := cmd.Flags().GetString("reply-dir")
		playCommand, _ := cmd.Flags().GetString("play-command")

		logger := setupLogger()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		recorder, err := buildRecorder(cfg, vadName, logger)
		if err != nil {
			return err
		}
		transcriber, err := buildTranscriber(cfg)
		if err != nil {
			return err
		}
		chatModel, err := buildLLM(cfg)
		if err != nil {
			return err
		}
		synth, err := buildTTS(cfg)
		if err != nil {
			return err
		}

		a, err := assistant.New(assistant.Config{
			Recorder:    recorder,
			Transcriber: transcriber,
			LLM:         chatModel,
			TTS:         synth,
			Player:      assistant.NewFilePlayer(replyDir, playCommand, logger),
			RecordOptions: voice.RecordOptions{
				MaxDuration: cfg.MaxDuration,
				MaxSilence:  cfg.MaxSilence,
			},
			Voice:  cfg.VoiceName,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		logger.Info("Assistant ready",
			slog.String("model", cfg.ModelName),
			slog.String("stt", cfg.STTProvider),
			slog.String("voice", cfg.VoiceName))

		if once {
			return a.RunTurn(ctx)
		}

		err = a.Run(ctx)
		if err == context.Canceled {
			logger.Info("Assistant stopped")
			return nil
		}
		return err
	},
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Plugin management commands",
}

var pluginListCmd = &cobra.Command{
	Use:   "list [kind]",
	Short: "List registered plugins",
	Long: `List all registered plugins or plugins of a specific kind.
Available kinds: stt, tts, llm, vad`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := ""
		if len(args) > 0 {
			kind = args[0]
		}

		plugins := plugin.List(kind)
		if len(plugins) == 0 {
			if kind == "" {
				fmt.Println("No plugins registered")
			} else {
				fmt.Printf("No plugins registered for kind: %s\n", kind)
			}
			return nil
		}

		fmt.Printf("%-8s %-20s %s\n", "KIND", "NAME", "DESCRIPTION")
		fmt.Println("--------------------------------------------")
		for _, p := range plugins {
			description := p.Description
			if description == "" {
				description = "No description"
			}
			fmt.Printf("%-8s %-20s %s\n", p.Kind, p.Name, description)
		}
		return nil
	},
}

func setupLogger() *slog.Logger {
	logFormat := os.Getenv("VOICELOOP_LOG_FORMAT")
	logLevel := os.Getenv("VOICELOOP_LOG_LEVEL")

	opts := &slog.HandlerOptions{}
	switch logLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildRecorder assembles a recorder with the requested classifier.
// The energy classifier is built in; anything else comes from the
// plugin registry.
func buildRecorder(cfg *config.Config, vadName string, logger *slog.Logger) (*voice.Recorder, error) {
	var classifier vad.Classifier
	if vadName != "" && vadName != "energy" {
		factory, ok := plugin.Get("vad", vadName)
		if !ok {
			return nil, fmt.Errorf("unknown VAD classifier %q", vadName)
		}
		instance, err := factory(map[string]any{})
		if err != nil {
			return nil, fmt.Errorf("failed to create VAD classifier %q: %w", vadName, err)
		}
		classifier, ok = instance.(vad.Classifier)
		if !ok {
			return nil, fmt.Errorf("plugin vad/%s is not a classifier", vadName)
		}
	}

	return voice.NewRecorder(voice.RecorderConfig{
		SampleRate: cfg.SampleRate,
		Classifier: classifier,
		Logger:     logger,
	})
}

func buildTranscriber(cfg *config.Config) (stt.Transcriber, error) {
	factory, ok := plugin.Get("stt", cfg.STTProvider)
	if !ok {
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STTProvider)
	}

	pluginCfg := cfg.OpenAIPluginConfig()
	if cfg.STTProvider == "xfyun" {
		pluginCfg = cfg.XfyunPluginConfig()
	}

	instance, err := factory(pluginCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create STT provider: %w", err)
	}
	transcriber, ok := instance.(stt.Transcriber)
	if !ok {
		return nil, fmt.Errorf("plugin stt/%s is not a transcriber", cfg.STTProvider)
	}
	return transcriber, nil
}

func buildLLM(cfg *config.Config) (llm.LLM, error) {
	factory, ok := plugin.Get("llm", "openai")
	if !ok {
		return nil, fmt.Errorf("llm/openai plugin is not registered")
	}
	instance, err := factory(cfg.OpenAIPluginConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	model, ok := instance.(llm.LLM)
	if !ok {
		return nil, fmt.Errorf("plugin llm/openai is not a chat model")
	}
	return model, nil
}

func buildTTS(cfg *config.Config) (tts.TTS, error) {
	factory, ok := plugin.Get("tts", "openai")
	if !ok {
		return nil, fmt.Errorf("tts/openai plugin is not registered")
	}
	instance, err := factory(cfg.OpenAIPluginConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS provider: %w", err)
	}
	synth, ok := instance.(tts.TTS)
	if !ok {
		return nil, fmt.Errorf("plugin tts/openai is not a synthesizer")
	}
	return synth, nil
}

func init() {
	recordCmd.Flags().String("output", "capture.wav", "Output WAV file path")
	recordCmd.Flags().String("vad", "energy", "VAD classifier to use (energy, silero)")

	transcribeCmd.Flags().String("vad", "energy", "VAD classifier to use (energy, silero)")
	transcribeCmd.Flags().String("provider", "", "STT provider (openai, xfyun); overrides STT_PROVIDER")

	chatCmd.Flags().String("vad", "energy", "VAD classifier to use (energy, silero)")
	chatCmd.Flags().Bool("once", false, "Run a single dialogue turn and exit")
	chatCmd.Flags().String("reply-dir", "", "Directory for saved reply audio (defaults to temp dir)")
	chatCmd.Flags().String("play-command", "", "Command to play reply audio files (e.g. afplay, mpg123)")

	pluginCmd.AddCommand(pluginListCmd)
	rootCmd.AddCommand(versionCmd, devicesCmd, recordCmd, transcribeCmd, chatCmd, pluginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
