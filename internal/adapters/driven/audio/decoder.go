package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
)

// Ensure Decoder implements the interface.
var _ driven.AudioDecoder = (*Decoder)(nil)

// Config configures the decoder.
type Config struct {
	// FFmpegBin is the ffmpeg binary. Empty uses "ffmpeg" from PATH.
	FFmpegBin string

	// Runner executes ffmpeg. Nil uses ExecRunner.
	Runner Runner
}

// Decoder reads WAV natively and everything else through ffmpeg.
type Decoder struct {
	ffmpeg string
	runner Runner
	log    *logger.Logger
}

// NewDecoder creates a decoder.
func NewDecoder(cfg Config) *Decoder {
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	return &Decoder{
		ffmpeg: cfg.FFmpegBin,
		runner: cfg.Runner,
		log:    logger.Named("decoder"),
	}
}

// Decode reads the file at path into a buffer.
func (d *Decoder) Decode(ctx context.Context, path string) (*domain.AudioBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	if isWAV(path) {
		buf, err := ReadWAVFile(path)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, domain.ErrUnsupportedFormat) {
			return nil, err
		}
		d.log.Debug().Str("path", path).Err(err).Msg("native wav decode failed, trying ffmpeg")
	}
	return d.transcode(ctx, path)
}

// Available reports whether the ffmpeg fallback can run.
func (d *Decoder) Available() bool {
	_, err := exec.LookPath(d.ffmpeg)
	return err == nil
}

// transcode converts path to float WAV in a temp dir, keeping the source
// channel count and sample rate.
func (d *Decoder) transcode(ctx context.Context, path string) (*domain.AudioBuffer, error) {
	if _, ok := d.runner.(ExecRunner); ok && !d.Available() {
		return nil, fmt.Errorf("%w: %s needs ffmpeg, which is not installed",
			domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	dir, err := os.MkdirTemp("", "musictruth-decode-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "decoded.wav")
	args := []string{"-nostdin", "-v", "error", "-y", "-i", path, "-vn", "-c:a", "pcm_f32le", out}
	d.log.Debug().Str("path", path).Msg("transcoding with ffmpeg")
	if _, err := d.runner.Run(ctx, d.ffmpeg, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: ffmpeg could not decode %s: %v", domain.ErrUnsupportedFormat, path, err)
	}
	return ReadWAVFile(out)
}

func isWAV(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".wav" || ext == ".wave"
}

// SupportedExtensions lists the extensions album scans pick up.
var SupportedExtensions = []string{".wav", ".wave", ".flac", ".mp3", ".m4a", ".aac", ".ogg", ".opus", ".aiff"}

// IsAudioFile reports whether path has a supported extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
