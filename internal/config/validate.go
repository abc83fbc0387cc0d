package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateSummarization(); err != nil {
		return err
	}
	if err := c.validateIntegrations(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	target := c.Audio.TargetLoudnessDBFS
	if math.IsNaN(target) || target > 0 || target < -96 {
		return fmt.Errorf("audio.target_loudness_dbfs must be between -96 and 0, got %v", target)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case "whisperx":
		switch c.Transcription.WhisperXVADMethod {
		case "silero", "pyannote":
		default:
			return fmt.Errorf("transcription.whisperx_vad_method must be silero or pyannote, got %q", c.Transcription.WhisperXVADMethod)
		}
	case "http":
		if err := validateURL("transcription.http_url", c.Transcription.HTTPURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("transcription.backend must be whisperx or http, got %q", c.Transcription.Backend)
	}
	return nil
}

func (c *Config) validateSummarization() error {
	s := c.Summarization
	switch s.Backend {
	case "llm":
		if err := validateURL("summarization.base_url", s.BaseURL); err != nil {
			return err
		}
	case "gemini":
	default:
		return fmt.Errorf("summarization.backend must be llm or gemini, got %q", s.Backend)
	}
	if s.MinLength < 0 {
		return errors.New("summarization.min_length must be non-negative")
	}
	if s.MaxLength <= 0 {
		return errors.New("summarization.max_length must be positive")
	}
	if s.MinLength > s.MaxLength {
		return fmt.Errorf("summarization.min_length (%d) must not exceed max_length (%d)", s.MinLength, s.MaxLength)
	}
	return nil
}

func (c *Config) validateIntegrations() error {
	if c.TasksEnabled() {
		if c.Tasks.BaseURL == "" {
			return errors.New("tasks.base_url is required when tasks.api_key is set (or set TASK_MANAGER_URL)")
		}
		if err := validateURL("tasks.base_url", c.Tasks.BaseURL); err != nil {
			return err
		}
	}
	if _, ok := calendarServiceURLs[c.Calendar.Service]; !ok && c.Calendar.BaseURL == "" {
		return fmt.Errorf("calendar.service must be google or outlook, got %q", c.Calendar.Service)
	}
	if c.Calendar.BaseURL != "" {
		if err := validateURL("calendar.base_url", c.Calendar.BaseURL); err != nil {
			return err
		}
	}
	if c.Calendar.FollowupHour < 0 || c.Calendar.FollowupHour > 23 {
		return fmt.Errorf("calendar.followup_hour must be between 0 and 23, got %d", c.Calendar.FollowupHour)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxWorkers < 0 {
		return errors.New("workflow.max_workers must be zero (unbounded) or positive")
	}
	if c.Workflow.StaleRunHours < 0 {
		return errors.New("workflow.stale_run_hours must be non-negative")
	}
	if c.Workflow.MinFreeMiB < 0 {
		return errors.New("workflow.min_free_mib must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}
