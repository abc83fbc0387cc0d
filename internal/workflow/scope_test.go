package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"echoes/internal/audio"
	"echoes/internal/logging"
)

func TestArtifactScopeRemovesEachArtifactOnce(t *testing.T) {
	scope := newArtifactScope(logging.NewNop())
	removed := map[string]int{}
	scope.remove = func(path string) error {
		removed[path]++
		return nil
	}

	tmp := audio.Artifact{Path: "/tmp/a.wav", Format: audio.FormatWAV, Temporary: true}
	other := audio.Artifact{Path: "/tmp/b.wav", Format: audio.FormatWAV, Temporary: true}
	input := audio.Artifact{Path: "/in/meeting.wav", Format: audio.FormatWAV}

	scope.track(tmp)
	scope.track(tmp)
	scope.track(other)
	scope.track(input)
	scope.release(tmp)
	scope.release(tmp)
	scope.close()
	scope.close()

	if removed[tmp.Path] != 1 || removed[other.Path] != 1 {
		t.Fatalf("expected each artifact removed once, got %v", removed)
	}
	if removed[input.Path] != 0 {
		t.Fatal("non-temporary input must never be removed")
	}
}

func TestArtifactScopeToleratesRemoveFailures(t *testing.T) {
	scope := newArtifactScope(logging.NewNop())
	calls := 0
	scope.remove = func(string) error {
		calls++
		return errors.New("busy")
	}
	scope.track(audio.Artifact{Path: "/tmp/x.wav", Temporary: true})
	scope.close()
	if calls != 1 {
		t.Fatalf("expected a single removal attempt, got %d", calls)
	}
}

func TestArtifactScopeRemovesRunDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "leftover.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	scope := newArtifactScope(logging.NewNop())
	scope.trackDir(dir)
	scope.close()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected run dir removed, stat err=%v", err)
	}
}
