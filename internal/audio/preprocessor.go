package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"echoes/internal/logging"
	"echoes/internal/services"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures a Preprocessor.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	Logger        *slog.Logger
	Runner        CommandRunner
}

// Preprocessor converts and normalizes audio. It holds no per-run state and is
// safe for concurrent use.
type Preprocessor struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
	run     CommandRunner
}

// NewPreprocessor constructs a Preprocessor with defaults applied.
func NewPreprocessor(opts Options) *Preprocessor {
	p := &Preprocessor{
		ffmpeg:  strings.TrimSpace(opts.FFmpegBinary),
		ffprobe: strings.TrimSpace(opts.FFprobeBinary),
		logger:  logging.NewComponentLogger(opts.Logger, "audio"),
		run:     opts.Runner,
	}
	if p.ffmpeg == "" {
		p.ffmpeg = "ffmpeg"
	}
	if p.ffprobe == "" {
		p.ffprobe = "ffprobe"
	}
	if p.run == nil {
		p.run = execCommand
	}
	return p
}

// EnsureWAV returns a WAV artifact for path. WAV input is passed through as a
// non-temporary artifact; other supported formats are decoded by ffmpeg into
// workDir.
func (p *Preprocessor) EnsureWAV(ctx context.Context, path, workDir string) (Artifact, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrUnsupportedFormat, "converting", "detect format", filepath.Base(path), err)
	}
	if format == FormatWAV {
		logging.WithContext(ctx, p.logger).Debug("input already wav; skipping conversion", logging.String("path", path))
		return Artifact{Path: path, Format: FormatWAV, Temporary: false}, nil
	}

	if _, err := os.Stat(path); err != nil {
		return Artifact{}, services.Wrap(services.ErrConversion, "converting", "open input", filepath.Base(path), err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Artifact{}, services.Wrap(services.ErrConversion, "converting", "ensure work dir", workDir, err)
	}

	dest := filepath.Join(workDir, stem(path)+".wav")
	args := buildConvertArgs(path, demuxers[format], dest)
	if _, err := p.run(ctx, p.ffmpeg, args...); err != nil {
		_ = os.Remove(dest)
		return Artifact{}, services.Wrap(services.ErrConversion, "converting", "ffmpeg", fmt.Sprintf("decode %s as %s", filepath.Base(path), format), err)
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(dest)
		return Artifact{}, services.Wrap(services.ErrConversion, "converting", "ffmpeg", "no audio written", err)
	}

	logging.WithContext(ctx, p.logger).Debug("converted input to wav",
		logging.String("source_format", string(format)),
		logging.String("output", dest),
		logging.Int64("output_bytes", info.Size()),
	)
	return Artifact{Path: dest, Format: FormatWAV, Temporary: true}, nil
}

// buildConvertArgs decodes src with the given demuxer into 16-bit PCM WAV,
// dropping container metadata and any video/cover-art streams.
func buildConvertArgs(src, demuxer, dest string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-f", demuxer,
		"-i", src,
		"-map_metadata", "-1",
		"-vn",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
