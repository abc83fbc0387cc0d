package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE
	wavReadChunkBytes   = 64 * 1024
)

// WAVFormat describes the integer PCM layout of a WAV data chunk.
type WAVFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

func (f WAVFormat) bytesPerSample() int { return f.BitsPerSample / 8 }

func (f WAVFormat) blockAlign() int { return f.Channels * f.bytesPerSample() }

// fullScale is the magnitude of the most negative representable sample.
func (f WAVFormat) fullScale() float64 { return float64(int64(1) << (f.BitsPerSample - 1)) }

func (f WAVFormat) validate() error {
	switch f.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", f.BitsPerSample)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	return nil
}

type wavReader struct {
	file       *os.File
	format     WAVFormat
	dataOffset int64
	dataSize   int64
}

func openWAV(path string) (*wavReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	r := &wavReader{file: file}
	if err := r.parse(info.Size()); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *wavReader) close() error {
	return r.file.Close()
}

// parse walks the RIFF chunk list, recording the fmt chunk and the location of
// the data chunk. Unknown chunks (LIST, fact, ...) are skipped.
func (r *wavReader) parse(fileSize int64) error {
	var header [12]byte
	if _, err := io.ReadFull(r.file, header[:]); err != nil {
		return fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return errors.New("not a RIFF/WAVE file")
	}

	offset := int64(len(header))
	haveFormat := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r.file, chunk[:]); err != nil {
			return errors.New("missing data chunk")
		}
		offset += int64(len(chunk))
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return fmt.Errorf("fmt chunk too short (%d bytes)", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r.file, body); err != nil {
				return fmt.Errorf("read fmt chunk: %w", err)
			}
			format, err := parseFormatChunk(body)
			if err != nil {
				return err
			}
			r.format = format
			haveFormat = true
		case "data":
			if !haveFormat {
				return errors.New("data chunk precedes fmt chunk")
			}
			// Streamed writers leave the size as 0 or 0xFFFFFFFF; trust the file.
			remaining := fileSize - offset
			if size == 0 || size > remaining {
				size = remaining
			}
			size -= size % int64(r.format.blockAlign())
			r.dataOffset = offset
			r.dataSize = size
			return nil
		default:
			if _, err := r.file.Seek(size, io.SeekCurrent); err != nil {
				return fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
		offset += size
		if size%2 == 1 {
			if _, err := r.file.Seek(1, io.SeekCurrent); err != nil {
				return fmt.Errorf("skip chunk padding: %w", err)
			}
			offset++
		}
	}
}

func parseFormatChunk(body []byte) (WAVFormat, error) {
	tag := binary.LittleEndian.Uint16(body[0:2])
	if tag == wavFormatExtensible {
		if len(body) < 40 {
			return WAVFormat{}, errors.New("extensible fmt chunk too short")
		}
		tag = binary.LittleEndian.Uint16(body[24:26])
	}
	if tag != wavFormatPCM {
		return WAVFormat{}, fmt.Errorf("unsupported encoding tag 0x%04x (integer PCM required)", tag)
	}
	format := WAVFormat{
		Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
		SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
		BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
	}
	return format, format.validate()
}

// scan feeds every sample of the data chunk to fn in interleaved order. The
// slice passed to fn is reused between calls.
func (r *wavReader) scan(fn func(samples []int32) error) error {
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek data chunk: %w", err)
	}
	bps := r.format.bytesPerSample()
	align := r.format.blockAlign()
	chunk := (wavReadChunkBytes / align) * align
	if chunk == 0 {
		chunk = align
	}
	buf := make([]byte, chunk)
	samples := make([]int32, chunk/bps)

	reader := bufio.NewReaderSize(r.file, chunk)
	remaining := r.dataSize
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(reader, buf[:n]); err != nil {
			return fmt.Errorf("read samples: %w", err)
		}
		count := int(n) / bps
		for i := 0; i < count; i++ {
			samples[i] = decodeSample(buf[i*bps:], r.format.BitsPerSample)
		}
		if err := fn(samples[:count]); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

type wavWriter struct {
	file     *os.File
	buf      *bufio.Writer
	format   WAVFormat
	dataSize int64
	scratch  []byte
}

// createWAV writes a canonical 44-byte PCM header sized for dataSize bytes of
// samples. Exactly dataSize bytes must follow before close.
func createWAV(path string, format WAVFormat, dataSize int64) (*wavWriter, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if dataSize > math.MaxUint32-44 {
		return nil, fmt.Errorf("audio data too large for wav (%d bytes)", dataSize)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w := &wavWriter{file: file, buf: bufio.NewWriter(file), format: format, dataSize: dataSize}

	pad := dataSize % 2
	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize+pad))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(format.SampleRate*format.blockAlign()))
	binary.LittleEndian.PutUint16(header[32:34], uint16(format.blockAlign()))
	binary.LittleEndian.PutUint16(header[34:36], uint16(format.BitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	if _, err := w.buf.Write(header[:]); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *wavWriter) writeSamples(samples []int32) error {
	bps := w.format.bytesPerSample()
	need := len(samples) * bps
	if cap(w.scratch) < need {
		w.scratch = make([]byte, need)
	}
	out := w.scratch[:need]
	for i, sample := range samples {
		encodeSample(out[i*bps:], sample, w.format.BitsPerSample)
	}
	_, err := w.buf.Write(out)
	return err
}

func (w *wavWriter) close() error {
	if w.dataSize%2 == 1 {
		if err := w.buf.WriteByte(0); err != nil {
			w.file.Close()
			return err
		}
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// WriteWAV writes interleaved integer samples as a PCM WAV file.
func WriteWAV(path string, format WAVFormat, samples []int32) error {
	w, err := createWAV(path, format, int64(len(samples)*format.bytesPerSample()))
	if err != nil {
		return err
	}
	if err := w.writeSamples(samples); err != nil {
		w.file.Close()
		return err
	}
	return w.close()
}

func decodeSample(b []byte, bits int) int32 {
	switch bits {
	case 8:
		return int32(b[0]) - 128
	case 16:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= -0x1000000
		}
		return v
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}

func encodeSample(dst []byte, v int32, bits int) {
	switch bits {
	case 8:
		dst[0] = byte(v + 128)
	case 16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case 24:
		dst[0] = byte(v)
		dst[1] = byte(v >> 8)
		dst[2] = byte(v >> 16)
	default:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	}
}
