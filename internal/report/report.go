package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"echoes/internal/fileutil"
	"echoes/internal/workflow"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatDOCX Format = "docx"
)

// LockFileName is the advisory lock taken in the output directory.
const LockFileName = ".echoes.lock"

const lockRetry = 100 * time.Millisecond

// ParseFormat accepts a format name, case-insensitively. Blank means JSON.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatDOCX:
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want json, xlsx or docx)", value)
	}
}

// DefaultPath returns "<input without extension>_summary.<format>".
func DefaultPath(input string, format Format) string {
	return fileutil.StripExt(input) + "_summary." + string(format)
}

// PathIn returns the default output name for input placed in dir.
func PathIn(dir, input string, format Format) string {
	return filepath.Join(dir, filepath.Base(DefaultPath(input, format)))
}

// Write encodes result to path. It waits for the output directory lock
// until ctx is done.
func Write(ctx context.Context, path string, format Format, result *workflow.Result) error {
	if result == nil {
		return fmt.Errorf("write report: nil result")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire output lock: %s is busy", dir)
	}
	defer func() { _ = lock.Unlock() }()

	switch format {
	case FormatJSON, "":
		return writeJSON(path, result)
	case FormatXLSX:
		return writeXLSX(path, result)
	case FormatDOCX:
		return writeDOCX(path, result)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Encode renders result as indented JSON.
func Encode(result *workflow.Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return append(data, '\n'), nil
}

// ReadJSON loads a result previously written as JSON.
func ReadJSON(path string) (*workflow.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result workflow.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}

func writeJSON(path string, result *workflow.Result) error {
	data, err := Encode(result)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func integrationDetail(result *workflow.Result, step string) string {
	in, ok := result.Integration(step)
	if !ok {
		return ""
	}
	if in.Detail == "" {
		return string(in.Status)
	}
	return string(in.Status) + ": " + in.Detail
}
