package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Required-stage markers. A run that fails with one of these produces no result.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrConversion        = errors.New("audio conversion failed")
	ErrNormalization     = errors.New("audio normalization failed")
	ErrTranscription     = errors.New("transcription failed")
	ErrSummarization     = errors.New("summarization failed")
)

// Optional-stage and ambient markers.
var (
	ErrIntegration   = errors.New("integration failed")
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
)

// StageError carries the stage context attached by Wrap.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *StageError) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Marker, detail, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Marker, detail)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker so callers can classify it with errors.Is. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &StageError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// Details returns the stage, operation and message of the outermost
// StageError in err's chain. ok is false when err was not built by Wrap.
func Details(err error) (stage, operation, message string, ok bool) {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		return "", "", "", false
	}
	return stageErr.Stage, stageErr.Operation, stageErr.Message, true
}

// IsRequiredStageFailure reports whether err carries one of the markers that
// terminate a run.
func IsRequiredStageFailure(err error) bool {
	for _, marker := range []error{ErrUnsupportedFormat, ErrConversion, ErrNormalization, ErrTranscription, ErrSummarization} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}

// Kind returns a short machine-readable label for err, used in logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, ErrNormalization):
		return "normalization"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrSummarization):
		return "summarization"
	case errors.Is(err, ErrIntegration):
		return "integration"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
