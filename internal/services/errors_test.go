package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"echoes/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConversion, "converting", "ffmpeg", "decode failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"converting", "ffmpeg", "decode failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrSummarization, "", "", "", nil)
	if !errors.Is(err, services.ErrSummarization) {
		t.Fatalf("expected marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestRequiredStageClassification(t *testing.T) {
	required := []error{
		services.ErrUnsupportedFormat,
		services.ErrConversion,
		services.ErrNormalization,
		services.ErrTranscription,
		services.ErrSummarization,
	}
	for _, marker := range required {
		wrapped := fmt.Errorf("outer: %w", services.Wrap(marker, "stage", "op", "msg", nil))
		if !services.IsRequiredStageFailure(wrapped) {
			t.Fatalf("expected %v to be a required-stage failure", marker)
		}
	}
	if services.IsRequiredStageFailure(services.Wrap(services.ErrIntegration, "integrating", "tasks", "down", nil)) {
		t.Fatal("integration failures must not be required-stage failures")
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"none":          nil,
		"transcription": services.Wrap(services.ErrTranscription, "", "", "x", nil),
		"integration":   services.Wrap(services.ErrIntegration, "", "", "x", nil),
		"cancelled":     fmt.Errorf("stop: %w", context.Canceled),
		"unknown":       errors.New("other"),
	}
	for want, err := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestDetails(t *testing.T) {
	err := fmt.Errorf("run: %w", services.Wrap(services.ErrNormalization, "normalizing", "measure", "no samples", errors.New("eof")))
	stage, op, msg, ok := services.Details(err)
	if !ok {
		t.Fatal("expected details")
	}
	if stage != "normalizing" || op != "measure" || msg != "no samples" {
		t.Fatalf("unexpected details: %q %q %q", stage, op, msg)
	}
	if _, _, _, ok := services.Details(errors.New("plain")); ok {
		t.Fatal("plain errors carry no details")
	}
}
