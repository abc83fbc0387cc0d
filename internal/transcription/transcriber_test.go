package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"echoes/internal/audio"
	"echoes/internal/config"
	"echoes/internal/services"
	"echoes/internal/services/whisperx"
)

type stubBackend struct {
	text string
	err  error
	lang string
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Transcribe(_ context.Context, _ string, lang string) (string, error) {
	s.lang = lang
	return s.text, s.err
}

func wavArtifact(t *testing.T) audio.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting_normalized.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return audio.Artifact{Path: path, Format: audio.FormatWAV, Temporary: true}
}

func TestTranscribeReturnsTrimmedText(t *testing.T) {
	backend := &stubBackend{text: "  We need to ship.\n"}
	got, err := New(backend, nil).Transcribe(context.Background(), wavArtifact(t), "en-US")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if got != "We need to ship." {
		t.Fatalf("unexpected transcript %q", got)
	}
	if backend.lang != "en-US" {
		t.Fatalf("expected language passed through, got %q", backend.lang)
	}
}

func TestTranscribeFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend *stubBackend
	}{
		{"empty hypothesis", &stubBackend{text: "   "}},
		{"backend unreachable", &stubBackend{err: errors.New("connection refused")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.backend, nil).Transcribe(context.Background(), wavArtifact(t), "en")
			if !errors.Is(err, services.ErrTranscription) {
				t.Fatalf("expected ErrTranscription, got %v", err)
			}
		})
	}
}

func TestTranscribeRejectsNonWAV(t *testing.T) {
	artifact := audio.Artifact{Path: "/tmp/a.mp3", Format: audio.FormatMP3}
	_, err := New(&stubBackend{text: "x"}, nil).Transcribe(context.Background(), artifact, "en")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
}

func TestWhisperXBackendWritesNextToAudio(t *testing.T) {
	artifact := wavArtifact(t)
	svc := whisperx.NewService(whisperx.Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		out := filepath.Join(filepath.Dir(artifact.Path), "whisperx")
		return nil, os.WriteFile(filepath.Join(out, "meeting_normalized.json"), []byte(`{"segments":[{"text":"Hello."}]}`), 0o644)
	})
	got, err := New(NewWhisperXBackend(svc), nil).Transcribe(context.Background(), artifact, "en")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if got != "Hello." {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestNewFromConfigHTTPBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("language"); got != "de" {
			t.Errorf("expected iso2 language, got %q", got)
		}
		_, _ = w.Write([]byte(`{"text":"Guten Morgen."}`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Transcription.Backend = "http"
	cfg.Transcription.HTTPURL = server.URL
	tr, err := NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if tr.Backend() != "http" {
		t.Fatalf("unexpected backend %q", tr.Backend())
	}
	got, err := tr.Transcribe(context.Background(), wavArtifact(t), "de-DE")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if got != "Guten Morgen." {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Backend = "vosk"
	if _, err := NewFromConfig(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
