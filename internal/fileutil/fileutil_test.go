package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "out.json")

	if err := WriteFileAtomic(dst, []byte(`{"a":1}`), 0o640); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("content mismatch: %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode mismatch: got %o", info.Mode().Perm())
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(dst, []byte("old contents that are longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dst, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "new" {
		t.Fatalf("expected replacement, got %q", got)
	}
}

func TestWriteViaTempCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.xlsx")
	if err := os.WriteFile(dst, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("encode failed")
	err := WriteViaTemp(dst, 0o644, func(tmp string) error {
		if err := os.WriteFile(tmp, []byte("partial"), 0o644); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file removed, found %d entries", len(entries))
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "keep" {
		t.Fatalf("existing file must survive a failed write, got %q", got)
	}
}

func TestStripExt(t *testing.T) {
	tests := map[string]string{
		"/a/meeting.mp3":   "/a/meeting",
		"/a/meeting.b.wav": "/a/meeting.b",
		"/a/noext":         "/a/noext",
	}
	for in, want := range tests {
		if got := StripExt(in); got != want {
			t.Fatalf("StripExt(%q) = %q, want %q", in, got, want)
		}
	}
}
