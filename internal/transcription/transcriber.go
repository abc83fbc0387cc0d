package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"echoes/internal/audio"
	"echoes/internal/config"
	"echoes/internal/language"
	"echoes/internal/logging"
	"echoes/internal/services"
	"echoes/internal/services/speechapi"
	"echoes/internal/services/whisperx"
)

// Backend produces raw transcript text for a WAV file.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, path, language string) (string, error)
}

// Transcriber validates backend output and tags failures.
type Transcriber struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps backend.
func New(backend Backend, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "transcription"),
	}
}

// NewFromConfig builds the backend selected by cfg.Transcription.Backend.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Transcriber, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribing", "configure", "config required", nil)
	}
	tc := cfg.Transcription
	switch tc.Backend {
	case "http":
		client, err := speechapi.NewClient(speechapi.Config{
			Endpoint:       tc.HTTPURL,
			APIKey:         tc.HTTPAPIKey,
			Model:          tc.HTTPModel,
			TimeoutSeconds: tc.TimeoutSeconds,
		}, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "transcribing", "configure", "http backend", err)
		}
		return New(&HTTPBackend{client: client}, logger), nil
	case "whisperx", "":
		svc := whisperx.NewService(whisperx.Config{
			Model:       tc.WhisperXModel,
			CUDAEnabled: tc.WhisperXCUDAEnabled,
			VADMethod:   tc.WhisperXVADMethod,
			HFToken:     tc.WhisperXHFToken,
		})
		return New(&WhisperXBackend{service: svc}, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribing", "configure", fmt.Sprintf("unknown backend %q", tc.Backend), nil)
	}
}

// Backend returns the name of the active backend.
func (t *Transcriber) Backend() string {
	return t.backend.Name()
}

// Transcribe returns the best hypothesis for the artifact. Empty output
// counts as a failure.
func (t *Transcriber) Transcribe(ctx context.Context, artifact audio.Artifact, lang string) (string, error) {
	name := filepath.Base(artifact.Path)
	if artifact.Format != audio.FormatWAV {
		return "", services.Wrap(services.ErrTranscription, "transcribing", t.backend.Name(), fmt.Sprintf("%s is %s, expected wav", name, artifact.Format), nil)
	}
	start := time.Now()
	text, err := t.backend.Transcribe(ctx, artifact.Path, lang)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcribing", t.backend.Name(), name, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrTranscription, "transcribing", t.backend.Name(), "no speech recognized in "+name, nil)
	}
	t.logger.Debug("transcription complete",
		logging.String("backend", t.backend.Name()),
		logging.String("language", language.Canonical(lang)),
		logging.Int("characters", len(text)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
