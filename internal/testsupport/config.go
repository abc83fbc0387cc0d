package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"echoes/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Staging and log directories exist; integrations are disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Summarization.APIKey = "test"
	cfgVal.Workflow.MinFreeMiB = 0
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTasks enables the task manager against baseURL.
func WithTasks(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tasks.BaseURL = baseURL
		b.cfg.Tasks.APIKey = apiKey
	}
}

// WithCalendar enables follow-up scheduling against baseURL.
func WithCalendar(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Calendar.BaseURL = baseURL
		b.cfg.Calendar.APIKey = apiKey
	}
}

// WithWatchDir creates and configures a watch directory and output
// directory under the test base.
func WithWatchDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Dir = filepath.Join(b.baseDir, "inbox")
		b.cfg.Watch.OutputDir = filepath.Join(b.baseDir, "outbox")
		for _, dir := range []string{b.cfg.Watch.Dir, b.cfg.Watch.OutputDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				b.t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe and uvx are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
