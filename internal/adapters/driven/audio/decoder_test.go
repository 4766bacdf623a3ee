package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// fakeFFmpeg writes a fixed buffer to the output path it is given.
type fakeFFmpeg struct {
	buf   *domain.AudioBuffer
	err   error
	calls int
	args  []string
}

func (f *fakeFFmpeg) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.calls++
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return nil, WriteWAVFile(args[len(args)-1], f.buf)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestDecoder_WAVNative(t *testing.T) {
	ff := &fakeFFmpeg{}
	d := NewDecoder(Config{Runner: ff})
	path := writeFile(t, "a.WAV", pcmWAV(formatPCM, 1, 8000, 16, le16(16384)))

	buf, err := d.Decode(context.Background(), path)

	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.5}, buf.Samples, 1e-6)
	assert.Zero(t, ff.calls)
}

func TestDecoder_TranscodesOtherFormats(t *testing.T) {
	ff := &fakeFFmpeg{buf: &domain.AudioBuffer{Samples: []float32{0.1, 0.2}, SampleRate: 48000, Channels: 1}}
	d := NewDecoder(Config{Runner: ff})
	path := writeFile(t, "song.flac", []byte("fLaC"))

	buf, err := d.Decode(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 48000, buf.SampleRate)
	assert.Equal(t, 1, ff.calls)
	assert.Contains(t, ff.args, path)
	assert.Contains(t, ff.args, "pcm_f32le")
}

func TestDecoder_BrokenWAVFallsBackToFFmpeg(t *testing.T) {
	ff := &fakeFFmpeg{buf: &domain.AudioBuffer{Samples: []float32{0}, SampleRate: 8000, Channels: 1}}
	d := NewDecoder(Config{Runner: ff})
	path := writeFile(t, "adpcm.wav", pcmWAV(2, 1, 8000, 4, []byte{0}))

	_, err := d.Decode(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, ff.calls)
}

func TestDecoder_Errors(t *testing.T) {
	ctx := context.Background()

	d := NewDecoder(Config{Runner: &fakeFFmpeg{err: errors.New("invalid data found")}})
	_, err := d.Decode(ctx, writeFile(t, "x.mp3", []byte("junk")))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = d.Decode(ctx, filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = d.Decode(ctx, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.Decode(cancelled, "whatever.wav")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecoder_MissingFFmpeg(t *testing.T) {
	d := NewDecoder(Config{FFmpegBin: "musictruth-no-such-ffmpeg"})
	assert.False(t, d.Available())

	_, err := d.Decode(context.Background(), writeFile(t, "x.ogg", []byte("OggS")))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "not installed")
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, IsAudioFile("/music/01 Intro.FLAC"))
	assert.True(t, IsAudioFile("a.wav"))
	assert.False(t, IsAudioFile("cover.jpg"))
	assert.False(t, IsAudioFile("README"))
}
