package transcription

import (
	"context"
	"path/filepath"

	"echoes/internal/language"
	"echoes/internal/services/speechapi"
	"echoes/internal/services/whisperx"
)

// WhisperXBackend runs WhisperX next to the audio file.
type WhisperXBackend struct {
	service *whisperx.Service
}

// NewWhisperXBackend wraps an existing service.
func NewWhisperXBackend(service *whisperx.Service) *WhisperXBackend {
	return &WhisperXBackend{service: service}
}

func (b *WhisperXBackend) Name() string { return "whisperx" }

func (b *WhisperXBackend) Transcribe(ctx context.Context, path, lang string) (string, error) {
	outputDir := filepath.Join(filepath.Dir(path), "whisperx")
	result, err := b.service.TranscribeFile(ctx, path, outputDir, lang)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// HTTPBackend uploads audio to a speech API.
type HTTPBackend struct {
	client *speechapi.Client
}

// NewHTTPBackend wraps an existing client.
func NewHTTPBackend(client *speechapi.Client) *HTTPBackend {
	return &HTTPBackend{client: client}
}

func (b *HTTPBackend) Name() string { return "http" }

func (b *HTTPBackend) Transcribe(ctx context.Context, path, lang string) (string, error) {
	resp, err := b.client.Transcribe(ctx, path, language.ToISO2(lang))
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
