package config

const (
	defaultStagingDir           = "~/.local/share/echoes/staging"
	defaultLogDir               = "~/.local/share/echoes/logs"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultTargetLoudnessDBFS   = -20.0
	defaultTranscriptionBackend = "whisperx"
	defaultLanguage             = "en-US"
	defaultWhisperXModel        = "large-v3"
	defaultWhisperXVADMethod    = "silero"
	defaultTranscriptionHTTPURL = "https://api.openai.com/v1/audio/transcriptions"
	defaultTranscriptionModel   = "whisper-1"
	defaultTranscriptionTimeout = 600
	defaultSummarizationBackend = "llm"
	defaultSummarizationBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultSummarizationModel   = "google/gemini-3-flash-preview"
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultSummarizationReferer = "https://github.com/echoes-audio/echoes"
	defaultSummarizationTitle   = "Echoes Summarizer"
	defaultSummaryMinLength     = 30
	defaultSummaryMaxLength     = 130
	defaultSummarizationTimeout = 60
	defaultIntegrationTimeout   = 30
	defaultCalendarService      = "google"
	defaultFollowupHour         = 10
	defaultFollowupMinutes      = 30
	defaultNotifyRequestTimeout = 10
	defaultStaleRunHours        = 24
	defaultMinFreeMiB           = 256
	defaultWatchSettleMS        = 2000
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var calendarServiceURLs = map[string]string{
	"google":  "https://www.googleapis.com/calendar/v3",
	"outlook": "https://graph.microsoft.com/v1.0/me/calendar",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Audio: Audio{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			TargetLoudnessDBFS: defaultTargetLoudnessDBFS,
		},
		Transcription: Transcription{
			Backend:           defaultTranscriptionBackend,
			Language:          defaultLanguage,
			WhisperXModel:     defaultWhisperXModel,
			WhisperXVADMethod: defaultWhisperXVADMethod,
			HTTPURL:           defaultTranscriptionHTTPURL,
			HTTPModel:         defaultTranscriptionModel,
			TimeoutSeconds:    defaultTranscriptionTimeout,
		},
		Summarization: Summarization{
			Backend:        defaultSummarizationBackend,
			BaseURL:        defaultSummarizationBaseURL,
			Model:          defaultSummarizationModel,
			Referer:        defaultSummarizationReferer,
			Title:          defaultSummarizationTitle,
			MinLength:      defaultSummaryMinLength,
			MaxLength:      defaultSummaryMaxLength,
			TimeoutSeconds: defaultSummarizationTimeout,
		},
		Tasks: Tasks{
			TimeoutSeconds: defaultIntegrationTimeout,
		},
		Calendar: Calendar{
			Service:         defaultCalendarService,
			TimeoutSeconds:  defaultIntegrationTimeout,
			FollowupHour:    defaultFollowupHour,
			FollowupMinutes: defaultFollowupMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunCompleted:   true,
			RunFailed:      true,
		},
		Workflow: Workflow{
			StaleRunHours: defaultStaleRunHours,
			MinFreeMiB:    defaultMinFreeMiB,
		},
		Watch: Watch{
			SettleMS: defaultWatchSettleMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
