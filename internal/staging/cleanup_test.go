package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"echoes/internal/logging"
)

const (
	oldRun    = "0b6f1c8e-6a53-4f8e-9d1e-3c2f1e0a9b11"
	recentRun = "7d2e4a90-1b3c-4d5e-8f60-718293a4b5c6"
)

func makeRun(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create run dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "normalized.wav"), []byte("RIFF0000"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(dir, stamp, stamp); err != nil {
		t.Fatalf("set mtime: %v", err)
	}
	return dir
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldRuns(t *testing.T) {
	root := t.TempDir()
	old := makeRun(t, root, oldRun, 48*time.Hour)
	recent := makeRun(t, root, recentRun, time.Minute)

	result := CleanStale(context.Background(), root, 24*time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("expected %s removed, got %v", old, result.Removed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != recent {
		t.Fatalf("expected %s skipped, got %v", recent, result.Skipped)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("old run directory should be gone")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Fatal("recent run directory should remain")
	}
}

func TestCleanStaleLeavesForeignDirectories(t *testing.T) {
	root := t.TempDir()
	foreign := makeRun(t, root, "keep-me", 72*time.Hour)
	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected no removals, got %v", result.Removed)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Fatal("non-run directory must not be removed")
	}
}

func TestCleanStaleZeroAgeDisablesSweep(t *testing.T) {
	root := t.TempDir()
	makeRun(t, root, oldRun, 72*time.Hour)
	result := CleanStale(context.Background(), root, 0, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected sweep disabled, got %v", result.Removed)
	}
}

func TestListRunsReportsSize(t *testing.T) {
	root := t.TempDir()
	makeRun(t, root, recentRun, 0)
	runs, err := ListRuns(root)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != recentRun || runs[0].Size != 8 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}
