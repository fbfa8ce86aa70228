package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// FilePlayer persists each synthesized reply to a directory and, when a
// playback command is configured, shells out to play it. Synthesized
// audio arrives as an encoded container (MP3 by default), so playback
// is delegated to an external tool like afplay or mpg123.
type FilePlayer struct {
	dir     string
	command string // e.g. "afplay" or "mpg123"; empty means save only
	logger  *slog.Logger
}

// NewFilePlayer creates a player writing replies under dir. An empty
// dir falls back to the system temp directory.
func NewFilePlayer(dir, command string, logger *slog.Logger) *FilePlayer {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FilePlayer{dir: dir, command: command, logger: logger}
}

// Play writes the audio to a timestamped file and optionally runs the
// playback command on it.
func (p *FilePlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return fmt.Errorf("no audio to play")
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create playback directory: %w", err)
	}

	name := fmt.Sprintf("reply-%s.mp3", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fmt.Errorf("failed to write reply audio: %w", err)
	}

	p.logger.Info("Reply audio saved",
		slog.String("path", path),
		slog.Int("bytes", len(audio)))

	if p.command == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.command, path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback command %q failed: %w", p.command, err)
	}
	return nil
}
