package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"echoes/internal/audio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTone writes a mono 16-bit 16 kHz sine wave of the given length and
// peak amplitude (0..1 of full scale).
func WriteTone(t testing.TB, path string, seconds, amplitude float64) {
	t.Helper()

	const rate = 16000
	n := int(seconds * rate)
	samples := make([]int32, n)
	for i := range samples {
		samples[i] = int32(amplitude * 32767 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	format := audio.WAVFormat{SampleRate: rate, Channels: 1, BitsPerSample: 16}
	if err := audio.WriteWAV(path, format, samples); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
