package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir" yaml:"staging_dir"`
	LogDir     string `toml:"log_dir" yaml:"log_dir"`
}

// Audio contains settings for decoding and loudness normalization.
type Audio struct {
	FFmpegBinary       string  `toml:"ffmpeg_binary" yaml:"ffmpeg_binary"`
	FFprobeBinary      string  `toml:"ffprobe_binary" yaml:"ffprobe_binary"`
	TargetLoudnessDBFS float64 `toml:"target_loudness_dbfs" yaml:"target_loudness_dbfs"`
}

// Transcription selects and configures the speech-to-text backend.
type Transcription struct {
	// Backend is "whisperx" (local uvx invocation) or "http" (OpenAI-compatible API).
	Backend             string `toml:"backend" yaml:"backend"`
	Language            string `toml:"language" yaml:"language"`
	WhisperXModel       string `toml:"whisperx_model" yaml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled" yaml:"whisperx_cuda_enabled"`
	WhisperXVADMethod   string `toml:"whisperx_vad_method" yaml:"whisperx_vad_method"`
	WhisperXHFToken     string `toml:"whisperx_hf_token" yaml:"whisperx_hf_token"`
	HTTPURL             string `toml:"http_url" yaml:"http_url"`
	HTTPAPIKey          string `toml:"http_api_key" yaml:"http_api_key"`
	HTTPModel           string `toml:"http_model" yaml:"http_model"`
	TimeoutSeconds      int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Summarization selects and configures the summarization backend.
type Summarization struct {
	// Backend is "llm" (OpenAI-compatible chat completions) or "gemini".
	Backend        string `toml:"backend" yaml:"backend"`
	Model          string `toml:"model" yaml:"model"`
	APIKey         string `toml:"api_key" yaml:"api_key"`
	BaseURL        string `toml:"base_url" yaml:"base_url"`
	Referer        string `toml:"referer" yaml:"referer"`
	Title          string `toml:"title" yaml:"title"`
	MinLength      int    `toml:"min_length" yaml:"min_length"`
	MaxLength      int    `toml:"max_length" yaml:"max_length"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Tasks configures the external task manager. Task creation is available
// only when APIKey is set.
type Tasks struct {
	APIKey         string `toml:"api_key" yaml:"api_key"`
	BaseURL        string `toml:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Calendar configures follow-up scheduling. Scheduling is available only
// when APIKey is set.
type Calendar struct {
	APIKey          string `toml:"api_key" yaml:"api_key"`
	Service         string `toml:"service" yaml:"service"`
	BaseURL         string `toml:"base_url" yaml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
	FollowupHour    int    `toml:"followup_hour" yaml:"followup_hour"`
	FollowupMinutes int    `toml:"followup_minutes" yaml:"followup_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic" yaml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout" yaml:"request_timeout"`
	RunCompleted   bool   `toml:"run_completed" yaml:"run_completed"`
	RunFailed      bool   `toml:"run_failed" yaml:"run_failed"`
}

// Workflow contains configuration for run execution.
type Workflow struct {
	MaxWorkers    int `toml:"max_workers" yaml:"max_workers"`
	StaleRunHours int `toml:"stale_run_hours" yaml:"stale_run_hours"`
	MinFreeMiB    int `toml:"min_free_mib" yaml:"min_free_mib"`
}

// Watch configures the directory watcher.
type Watch struct {
	Dir         string `toml:"dir" yaml:"dir"`
	OutputDir   string `toml:"output_dir" yaml:"output_dir"`
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
	SettleMS    int    `toml:"settle_ms" yaml:"settle_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
}

// Config encapsulates all configuration values for echoes.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories
//   - Audio: ffmpeg/ffprobe binaries and loudness target
//   - Transcription: whisperx or HTTP speech-to-text backend
//   - Summarization: LLM or Gemini summarization backend and length bounds
//   - Tasks / Calendar: optional side-effecting integrations
//   - Notifications: ntfy push notification settings
//   - Workflow: worker pool size and staging housekeeping
//   - Watch: directory watcher and metrics endpoint
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths" yaml:"paths"`
	Audio         Audio         `toml:"audio" yaml:"audio"`
	Transcription Transcription `toml:"transcription" yaml:"transcription"`
	Summarization Summarization `toml:"summarization" yaml:"summarization"`
	Tasks         Tasks         `toml:"tasks" yaml:"tasks"`
	Calendar      Calendar      `toml:"calendar" yaml:"calendar"`
	Notifications Notifications `toml:"notifications" yaml:"notifications"`
	Workflow      Workflow      `toml:"workflow" yaml:"workflow"`
	Watch         Watch         `toml:"watch" yaml:"watch"`
	Logging       Logging       `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/echoes/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := toml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	candidates := []string{defaultPath}
	for _, name := range []string{"echoes.toml", "echoes.yaml", "echoes.yml"} {
		projectPath, err := filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
		candidates = append(candidates, projectPath)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TasksEnabled reports whether task creation is available.
func (c *Config) TasksEnabled() bool {
	return strings.TrimSpace(c.Tasks.APIKey) != ""
}

// CalendarEnabled reports whether follow-up scheduling is available.
func (c *Config) CalendarEnabled() bool {
	return strings.TrimSpace(c.Calendar.APIKey) != ""
}

// CalendarBaseURL returns the configured calendar endpoint, falling back to
// the well-known URL of the selected service.
func (c *Config) CalendarBaseURL() string {
	if base := strings.TrimSpace(c.Calendar.BaseURL); base != "" {
		return base
	}
	return calendarServiceURLs[c.Calendar.Service]
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
