package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"echoes/internal/logging"
)

// SweepResult reports what a stale-run sweep removed.
type SweepResult struct {
	Removed []string
	Skipped []string
	Errors  []SweepError
}

// SweepError pairs a run directory with the error that kept it on disk.
type SweepError struct {
	Path string
	Err  error
}

// RunDir is a per-run work directory under the staging root.
type RunDir struct {
	RunID   string
	Path    string
	ModTime time.Time
	Size    int64
}

// CleanStale removes run directories older than maxAge. Only directories
// named by a run ID are considered, so unrelated content in the staging root
// is left alone. A done ctx stops the sweep early.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) SweepResult {
	var result SweepResult
	if logger == nil {
		logger = logging.NewNop()
	}
	runs, err := ListRuns(stagingDir)
	if err != nil {
		result.Errors = append(result.Errors, SweepError{Path: stagingDir, Err: err})
		return result
	}
	if maxAge <= 0 {
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, run := range runs {
		if ctx.Err() != nil {
			break
		}
		if !run.ModTime.Before(cutoff) {
			result.Skipped = append(result.Skipped, run.Path)
			continue
		}
		if err := os.RemoveAll(run.Path); err != nil {
			result.Errors = append(result.Errors, SweepError{Path: run.Path, Err: err})
			logging.WarnWithContext(logger, "failed to remove stale run directory", "staging_cleanup_failed",
				logging.String("path", run.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, run.Path)
		logger.Info("removed stale run directory",
			logging.String("run_id", run.RunID),
			logging.Duration("age", time.Since(run.ModTime)),
			logging.Int64("size_bytes", run.Size),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// ListRuns returns the run directories under stagingDir. A missing or blank
// staging dir has no runs.
func ListRuns(stagingDir string) ([]RunDir, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(stagingDir, entry.Name())
		size, _ := dirSize(path)
		runs = append(runs, RunDir{RunID: entry.Name(), Path: path, ModTime: info.ModTime(), Size: size})
	}
	return runs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
