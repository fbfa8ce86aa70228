package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetVersionInfoDefaults(t *testing.T) {
	info := GetVersionInfo()

	for _, want := range []string{"voiceloop version", "dev", "unknown", runtime.Version()} {
		if !strings.Contains(info, want) {
			t.Errorf("version info %q missing %q", info, want)
		}
	}
}

func TestGetVersionInfoOverrides(t *testing.T) {
	origVersion, origCommit, origBuild := Version, GitCommit, BuildTime
	defer func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuild
	}()

	Version = "v1.2.0"
	GitCommit = "abc123"
	BuildTime = "2026-01-01T00:00:00Z"

	info := GetVersionInfo()
	for _, want := range []string{"v1.2.0", "abc123", "2026-01-01T00:00:00Z"} {
		if !strings.Contains(info, want) {
			t.Errorf("version info %q missing %q", info, want)
		}
	}
}
