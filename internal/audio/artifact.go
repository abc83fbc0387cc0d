package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies an audio container by its file extension.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatM4A Format = "m4a"
	FormatOGG Format = "ogg"
)

// demuxers maps each supported container to the ffmpeg input format used to decode it.
var demuxers = map[Format]string{
	FormatWAV: "wav",
	FormatMP3: "mp3",
	FormatM4A: "mp4",
	FormatOGG: "ogg",
}

// Artifact is a file produced or consumed by a pipeline stage.
type Artifact struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
	// Temporary artifacts are owned by the run that created them and must be
	// deleted once no later stage needs them. The caller's input is never
	// temporary.
	Temporary bool `json:"temporary"`
}

// SupportedFormats lists the accepted input containers.
func SupportedFormats() []Format {
	return []Format{FormatMP3, FormatWAV, FormatM4A, FormatOGG}
}

// FormatFromPath classifies path by extension, case-insensitively.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "", fmt.Errorf("%s has no file extension", filepath.Base(path))
	}
	format := Format(ext)
	if _, ok := demuxers[format]; !ok {
		return "", fmt.Errorf("extension .%s is not one of mp3, wav, m4a, ogg", ext)
	}
	return format, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
