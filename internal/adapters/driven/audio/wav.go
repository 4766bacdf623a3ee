package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (*domain.AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWAV(bufio.NewReader(f))
}

// ReadWAV decodes a RIFF/WAVE stream. Unknown chunks are skipped.
// Encodings other than integer PCM and IEEE float fail with
// domain.ErrUnsupportedFormat.
func ReadWAV(r io.Reader) (*domain.AudioBuffer, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short RIFF header", domain.ErrUnsupportedFormat)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", domain.ErrUnsupportedFormat)
	}

	var format *wavFormat
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: no data chunk", domain.ErrUnsupportedFormat)
			}
			return nil, err
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			f, err := readFormat(r, size)
			if err != nil {
				return nil, err
			}
			format = f
		case "data":
			if format == nil {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", domain.ErrUnsupportedFormat)
			}
			return readSamples(r, size, format)
		default:
			if err := skip(r, size); err != nil {
				return nil, err
			}
		}
	}
}

func readFormat(r io.Reader, size int64) (*wavFormat, error) {
	if size < 16 {
		return nil, fmt.Errorf("%w: fmt chunk too small", domain.ErrUnsupportedFormat)
	}
	var f wavFormat
	if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
		return nil, fmt.Errorf("%w: read fmt chunk: %v", domain.ErrUnsupportedFormat, err)
	}
	rest := size - 16
	if f.AudioFormat == formatExtensible && rest >= 10 {
		// cbSize, validBits, channelMask, then the sub-format GUID whose
		// first two bytes carry the real format code.
		var ext [10]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, fmt.Errorf("%w: read extensible fmt: %v", domain.ErrUnsupportedFormat, err)
		}
		f.AudioFormat = binary.LittleEndian.Uint16(ext[8:10])
		rest -= 10
	}
	if err := skip(r, rest); err != nil {
		return nil, err
	}

	if f.Channels == 0 || f.SampleRate == 0 {
		return nil, fmt.Errorf("%w: zero channels or sample rate", domain.ErrUnsupportedFormat)
	}
	switch {
	case f.AudioFormat == formatPCM && (f.BitsPerSample == 8 || f.BitsPerSample == 16 ||
		f.BitsPerSample == 24 || f.BitsPerSample == 32):
	case f.AudioFormat == formatFloat && (f.BitsPerSample == 32 || f.BitsPerSample == 64):
	default:
		return nil, fmt.Errorf("%w: wav encoding %d at %d bits", domain.ErrUnsupportedFormat,
			f.AudioFormat, f.BitsPerSample)
	}
	return &f, nil
}

func readSamples(r io.Reader, size int64, f *wavFormat) (*domain.AudioBuffer, error) {
	width := int64(f.BitsPerSample / 8)
	// Streams written to a pipe often carry a placeholder size. Otherwise
	// the declared size only bounds the read; truncated files yield what
	// is there, and memory grows with the bytes actually read.
	src := r
	if size != 0 && size != math.MaxUint32 {
		src = io.LimitReader(r, size)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	frame := width * int64(f.Channels)
	usable := int64(len(data)) / frame * frame
	samples := make([]float32, usable/width)
	for i := range samples {
		b := data[int64(i)*width : int64(i+1)*width]
		samples[i] = decodeSample(b, f)
	}
	return &domain.AudioBuffer{
		Samples:    samples,
		SampleRate: int(f.SampleRate),
		Channels:   int(f.Channels),
	}, nil
}

func decodeSample(b []byte, f *wavFormat) float32 {
	if f.AudioFormat == formatFloat {
		if len(b) == 8 {
			return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	switch len(b) {
	case 1:
		return (float32(b[0]) - 128) / 128
	case 2:
		return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
	case 3:
		v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		return float32(v) / 8388608
	default:
		return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
	}
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	// Chunks are word aligned.
	if n%2 == 1 {
		n++
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: truncated chunk", domain.ErrUnsupportedFormat)
		}
		return err
	}
	return nil
}

// WriteWAVFile writes the buffer as 32-bit float WAV.
func WriteWAVFile(path string, buf *domain.AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteWAV(w, buf); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteWAV encodes the buffer as 32-bit float WAV.
func WriteWAV(w io.Writer, buf *domain.AudioBuffer) error {
	if buf == nil || buf.Channels <= 0 || buf.SampleRate <= 0 {
		return fmt.Errorf("%w: buffer has no channels or sample rate", domain.ErrInvalidInput)
	}
	dataSize := uint32(len(buf.Samples) * 4)
	blockAlign := uint16(buf.Channels * 4)

	header := struct {
		RIFF     [4]byte
		Size     uint32
		WAVE     [4]byte
		FmtID    [4]byte
		FmtSize  uint32
		Format   wavFormat
		DataID   [4]byte
		DataSize uint32
	}{
		RIFF:    [4]byte{'R', 'I', 'F', 'F'},
		Size:    36 + dataSize,
		WAVE:    [4]byte{'W', 'A', 'V', 'E'},
		FmtID:   [4]byte{'f', 'm', 't', ' '},
		FmtSize: 16,
		Format: wavFormat{
			AudioFormat:   formatFloat,
			Channels:      uint16(buf.Channels),
			SampleRate:    uint32(buf.SampleRate),
			ByteRate:      uint32(buf.SampleRate) * uint32(blockAlign),
			BlockAlign:    blockAlign,
			BitsPerSample: 32,
		},
		DataID:   [4]byte{'d', 'a', 't', 'a'},
		DataSize: dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, buf.Samples)
}
