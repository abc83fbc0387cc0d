package workflow

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"echoes/internal/audio"
	"echoes/internal/logging"
)

// artifactScope owns a run's temporary files. Each tracked artifact is
// removed at most once, either when released or when the scope closes.
// Non-temporary artifacts are never tracked, so inputs are never removed.
type artifactScope struct {
	mu       sync.Mutex
	logger   *slog.Logger
	pending  []string
	released map[string]bool
	dirs     []string
	remove   func(string) error
	closed   bool
}

func newArtifactScope(logger *slog.Logger) *artifactScope {
	return &artifactScope{
		logger:   logger,
		released: make(map[string]bool),
		remove:   os.Remove,
	}
}

func (s *artifactScope) track(a audio.Artifact) {
	if !a.Temporary || a.Path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released[a.Path] {
		return
	}
	for _, p := range s.pending {
		if p == a.Path {
			return
		}
	}
	s.pending = append(s.pending, a.Path)
}

func (s *artifactScope) trackDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = append(s.dirs, dir)
}

// release removes a now-unneeded artifact.
func (s *artifactScope) release(a audio.Artifact) {
	if !a.Temporary {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(a.Path)
}

func (s *artifactScope) releaseLocked(path string) {
	if s.released[path] {
		return
	}
	idx := -1
	for i, p := range s.pending {
		if p == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	s.released[path] = true
	if err := s.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(s.logger, "failed to remove temporary artifact", "artifact_cleanup",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
		return
	}
	s.logger.Debug("temporary artifact removed", logging.String("path", path))
}

// close releases every pending artifact and removes tracked directories.
func (s *artifactScope) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for len(s.pending) > 0 {
		s.releaseLocked(s.pending[0])
	}
	for _, dir := range s.dirs {
		if err := os.RemoveAll(dir); err != nil {
			logging.WarnWithContext(s.logger, "failed to remove run directory", "artifact_cleanup",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "directory is removed by the next stale-run sweep"),
			)
		}
	}
}
