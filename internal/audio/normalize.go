package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"echoes/internal/logging"
	"echoes/internal/services"
)

// DefaultTargetDBFS is the loudness normalization target.
const DefaultTargetDBFS = -20.0

// Loudness returns the RMS loudness of the WAV file at path in dBFS.
// Digital silence reports negative infinity.
func Loudness(path string) (float64, error) {
	reader, err := openWAV(path)
	if err != nil {
		return 0, err
	}
	defer reader.close()
	return reader.loudness()
}

func (r *wavReader) loudness() (float64, error) {
	var sumSquares float64
	var count int64
	err := r.scan(func(samples []int32) error {
		for _, s := range samples {
			v := float64(s)
			sumSquares += v * v
		}
		count += int64(len(samples))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, errors.New("no audio samples")
	}
	rms := math.Sqrt(sumSquares / float64(count))
	if rms == 0 {
		return math.Inf(-1), nil
	}
	return 20 * math.Log10(rms/r.format.fullScale()), nil
}

// applyGain writes a copy of the data chunk scaled by gainDB to dest,
// clipping at full scale.
func (r *wavReader) applyGain(dest string, gainDB float64) error {
	writer, err := createWAV(dest, r.format, r.dataSize)
	if err != nil {
		return err
	}
	factor := math.Pow(10, gainDB/20)
	hi := r.format.fullScale() - 1
	lo := -r.format.fullScale()
	err = r.scan(func(samples []int32) error {
		for i, s := range samples {
			v := math.Round(float64(s) * factor)
			samples[i] = int32(math.Max(lo, math.Min(hi, v)))
		}
		return writer.writeSamples(samples)
	})
	if err != nil {
		writer.file.Close()
		return err
	}
	return writer.close()
}

// Normalize writes a new temporary WAV artifact in workDir whose RMS loudness
// is targetDBFS. The input artifact is never modified. Silent input has no
// defined loudness and is copied without gain.
func (p *Preprocessor) Normalize(ctx context.Context, in Artifact, workDir string, targetDBFS float64) (Artifact, error) {
	logger := logging.WithContext(ctx, p.logger)

	reader, err := openWAV(in.Path)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrNormalization, "normalizing", "decode", filepath.Base(in.Path), err)
	}
	defer reader.close()

	measured, err := reader.loudness()
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrNormalization, "normalizing", "measure loudness", filepath.Base(in.Path), err)
	}

	gain := 0.0
	if math.IsInf(measured, -1) {
		logging.WarnWithContext(logger, "audio is digital silence; skipping gain", "normalize_silent_input",
			logging.String("path", in.Path),
			logging.String(logging.FieldErrorHint, "check the recording device or input file"),
			logging.String(logging.FieldImpact, "transcription will likely return no text"),
		)
	} else {
		gain = targetDBFS - measured
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Artifact{}, services.Wrap(services.ErrNormalization, "normalizing", "ensure work dir", workDir, err)
	}
	dest := filepath.Join(workDir, stem(in.Path)+"_normalized.wav")
	if err := reader.applyGain(dest, gain); err != nil {
		_ = os.Remove(dest)
		return Artifact{}, services.Wrap(services.ErrNormalization, "normalizing", "apply gain", filepath.Base(in.Path), err)
	}

	logger.Debug("normalized loudness",
		logging.String("measured_dbfs", formatDB(measured)),
		logging.Float64("target_dbfs", targetDBFS),
		logging.Float64("gain_db", roundDB(gain)),
		logging.Int("sample_rate", reader.format.SampleRate),
		logging.Int("channels", reader.format.Channels),
		logging.Int("bits_per_sample", reader.format.BitsPerSample),
	)
	return Artifact{Path: dest, Format: FormatWAV, Temporary: true}, nil
}

func roundDB(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatDB(v float64) string {
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(roundDB(v), 'f', 2, 64)
}
