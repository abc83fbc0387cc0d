package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeTranscription()
	if err := c.normalizeSummarization(); err != nil {
		return err
	}
	c.normalizeIntegrations()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Watch.Dir, err = expandPath(strings.TrimSpace(c.Watch.Dir)); err != nil {
		return fmt.Errorf("watch.dir: %w", err)
	}
	if c.Watch.OutputDir, err = expandPath(strings.TrimSpace(c.Watch.OutputDir)); err != nil {
		return fmt.Errorf("watch.output_dir: %w", err)
	}
	c.Watch.MetricsAddr = strings.TrimSpace(c.Watch.MetricsAddr)
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeTranscription() {
	if value, ok := lookupEnv("DEFAULT_LANGUAGE"); ok {
		c.Transcription.Language = value
	}
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscriptionBackend
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultLanguage
	}
	c.Transcription.WhisperXModel = strings.TrimSpace(c.Transcription.WhisperXModel)
	if c.Transcription.WhisperXModel == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
	c.Transcription.WhisperXVADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.WhisperXVADMethod))
	if c.Transcription.WhisperXVADMethod == "" {
		c.Transcription.WhisperXVADMethod = defaultWhisperXVADMethod
	}
	if c.Transcription.WhisperXHFToken == "" {
		if value, ok := lookupEnv("HF_TOKEN"); ok {
			c.Transcription.WhisperXHFToken = value
		}
	}
	if c.Transcription.HTTPAPIKey == "" {
		if value, ok := lookupEnv("TRANSCRIPTION_API_KEY"); ok {
			c.Transcription.HTTPAPIKey = value
		}
	}
	c.Transcription.HTTPURL = strings.TrimSpace(c.Transcription.HTTPURL)
	if c.Transcription.HTTPURL == "" {
		c.Transcription.HTTPURL = defaultTranscriptionHTTPURL
	}
	c.Transcription.HTTPModel = strings.TrimSpace(c.Transcription.HTTPModel)
	if c.Transcription.HTTPModel == "" {
		c.Transcription.HTTPModel = defaultTranscriptionModel
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeSummarization() error {
	s := &c.Summarization
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = defaultSummarizationBackend
	}
	if value, ok := lookupEnv("SUMMARIZER_MODEL"); ok {
		s.Model = value
	}
	if s.APIKey == "" {
		envName := "OPENROUTER_API_KEY"
		if s.Backend == "gemini" {
			envName = "GEMINI_API_KEY"
		}
		if value, ok := lookupEnv(envName); ok {
			s.APIKey = value
		}
	}
	for _, bound := range []struct {
		env    string
		target *int
	}{
		{"MIN_SUMMARY_LENGTH", &s.MinLength},
		{"MAX_SUMMARY_LENGTH", &s.MaxLength},
	} {
		value, ok := lookupEnv(bound.env)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", bound.env, err)
		}
		*bound.target = parsed
	}
	s.Model = strings.TrimSpace(s.Model)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	if s.Backend == "gemini" {
		// The OpenRouter defaults do not apply to the Gemini API.
		if s.Model == "" || s.Model == defaultSummarizationModel {
			s.Model = defaultGeminiModel
		}
		if s.BaseURL == defaultSummarizationBaseURL {
			s.BaseURL = ""
		}
	} else {
		if s.Model == "" {
			s.Model = defaultSummarizationModel
		}
		if s.BaseURL == "" {
			s.BaseURL = defaultSummarizationBaseURL
		}
	}
	s.Referer = strings.TrimSpace(s.Referer)
	if s.Referer == "" {
		s.Referer = defaultSummarizationReferer
	}
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = defaultSummarizationTitle
	}
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = defaultSummarizationTimeout
	}
	return nil
}

func (c *Config) normalizeIntegrations() {
	if c.Tasks.APIKey == "" {
		if value, ok := lookupEnv("TASK_MANAGER_API_KEY"); ok {
			c.Tasks.APIKey = value
		}
	}
	if c.Tasks.BaseURL == "" {
		if value, ok := lookupEnv("TASK_MANAGER_URL"); ok {
			c.Tasks.BaseURL = value
		}
	}
	c.Tasks.APIKey = strings.TrimSpace(c.Tasks.APIKey)
	c.Tasks.BaseURL = strings.TrimRight(strings.TrimSpace(c.Tasks.BaseURL), "/")
	if c.Tasks.TimeoutSeconds <= 0 {
		c.Tasks.TimeoutSeconds = defaultIntegrationTimeout
	}

	if c.Calendar.APIKey == "" {
		if value, ok := lookupEnv("CALENDAR_API_KEY"); ok {
			c.Calendar.APIKey = value
		}
	}
	if value, ok := lookupEnv("CALENDAR_SERVICE"); ok {
		c.Calendar.Service = value
	}
	c.Calendar.APIKey = strings.TrimSpace(c.Calendar.APIKey)
	c.Calendar.Service = strings.ToLower(strings.TrimSpace(c.Calendar.Service))
	if c.Calendar.Service == "" {
		c.Calendar.Service = defaultCalendarService
	}
	c.Calendar.BaseURL = strings.TrimRight(strings.TrimSpace(c.Calendar.BaseURL), "/")
	if c.Calendar.TimeoutSeconds <= 0 {
		c.Calendar.TimeoutSeconds = defaultIntegrationTimeout
	}
	if c.Calendar.FollowupMinutes <= 0 {
		c.Calendar.FollowupMinutes = defaultFollowupMinutes
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Watch.SettleMS <= 0 {
		c.Watch.SettleMS = defaultWatchSettleMS
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := lookupEnv("LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
