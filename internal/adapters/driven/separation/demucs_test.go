package separation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/audio"
	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// fakeDemucs mimics demucs output: one WAV per stem under <out>/<model>.
type fakeDemucs struct {
	calls atomic.Int32
	err   error
	input atomic.Value
}

func (f *fakeDemucs) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.calls.Add(1)
	f.input.Store(args[len(args)-1])
	if f.err != nil {
		return nil, f.err
	}
	var out, model string
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "-o":
			out = args[i+1]
		case "-n":
			model = args[i+1]
		}
	}
	dir := filepath.Join(out, model)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	for i, stem := range []string{"vocals", "drums", "bass", "other"} {
		buf := &domain.AudioBuffer{Samples: []float32{float32(i) / 10}, SampleRate: 8000, Channels: 1}
		if err := audio.WriteWAVFile(filepath.Join(dir, stem+".wav"), buf); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func testUnit(id string) domain.AudioUnit {
	buf := &domain.AudioBuffer{Samples: make([]float32, 800), SampleRate: 8000, Channels: 1}
	return domain.NewAudioUnit(id, "", buf)
}

func newTestDemucs(t *testing.T, runner audio.Runner) *Demucs {
	t.Helper()
	d, err := NewDemucs(Config{Runner: runner, WorkDir: t.TempDir()})
	require.NoError(t, err)
	return d
}

func TestDemucs_SeparatesOncePerUnit(t *testing.T) {
	fake := &fakeDemucs{}
	d := newTestDemucs(t, fake)
	unit := testUnit("u1")
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*domain.AudioBuffer, 4)
	stems := []domain.Stem{domain.StemVocals, domain.StemDrums, domain.StemBass, domain.StemVocals}
	for i, stem := range stems {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := d.Separate(ctx, unit, stem)
			assert.NoError(t, err)
			results[i] = buf
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fake.calls.Load())
	require.NotNil(t, results[1])
	assert.InDelta(t, 0.1, results[1].Samples[0], 1e-6)
	assert.Equal(t, "input.wav", filepath.Base(fake.input.Load().(string)))

	_, err := d.Separate(ctx, testUnit("u2"), domain.StemOther)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestDemucs_FullMixPassesThrough(t *testing.T) {
	fake := &fakeDemucs{}
	d := newTestDemucs(t, fake)
	unit := testUnit("u1")

	buf, err := d.Separate(context.Background(), unit, domain.StemFullMix)

	require.NoError(t, err)
	assert.Same(t, unit.Buffer, buf)
	assert.Zero(t, fake.calls.Load())
}

func TestDemucs_UsesSourceFile(t *testing.T) {
	fake := &fakeDemucs{}
	d := newTestDemucs(t, fake)
	unit := testUnit("u1")
	unit.SourcePath = "/music/track.flac"

	_, err := d.Separate(context.Background(), unit, domain.StemVocals)

	require.NoError(t, err)
	assert.Equal(t, "/music/track.flac", fake.input.Load())
}

func TestDemucs_Failures(t *testing.T) {
	ctx := context.Background()

	failing := newTestDemucs(t, &fakeDemucs{err: errors.New("CUDA out of memory")})
	_, err := failing.Separate(ctx, testUnit("u1"), domain.StemVocals)
	assert.ErrorIs(t, err, domain.ErrSeparationUnavailable)

	d := newTestDemucs(t, &fakeDemucs{})
	_, err = d.Separate(ctx, testUnit("u1"), "piano")
	assert.ErrorIs(t, err, domain.ErrSeparationUnavailable)

	empty := domain.AudioUnit{ID: "nothing"}
	_, err = d.Separate(ctx, empty, domain.StemVocals)
	assert.ErrorIs(t, err, domain.ErrSeparationUnavailable)

	missing, err := NewDemucs(Config{Bin: "musictruth-no-such-demucs"})
	require.NoError(t, err)
	defer missing.Close()
	_, err = missing.Separate(ctx, testUnit("u1"), domain.StemVocals)
	assert.ErrorIs(t, err, domain.ErrSeparationUnavailable)
	assert.Contains(t, err.Error(), "not installed")
}

func TestDemucs_ForgetAndClose(t *testing.T) {
	fake := &fakeDemucs{}
	d, err := NewDemucs(Config{Runner: fake})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Separate(ctx, testUnit("u1"), domain.StemDrums)
	require.NoError(t, err)
	d.Forget("u1")
	_, err = d.Separate(ctx, testUnit("u1"), domain.StemDrums)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load())

	require.NoError(t, d.Close())
	_, statErr := os.Stat(d.workDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDemucs_ForgetRemovesStemsFromDisk(t *testing.T) {
	d := newTestDemucs(t, &fakeDemucs{})
	ctx := context.Background()

	_, err := d.Separate(ctx, testUnit("u1"), domain.StemVocals)
	require.NoError(t, err)
	entries, err := os.ReadDir(d.workDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	d.Forget("u1")

	entries, err = os.ReadDir(d.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDemucs_ForgetClearsCachedFailure(t *testing.T) {
	fake := &fakeDemucs{err: errors.New("CUDA out of memory")}
	d := newTestDemucs(t, fake)
	ctx := context.Background()

	_, err := d.Separate(ctx, testUnit("u1"), domain.StemVocals)
	require.ErrorIs(t, err, domain.ErrSeparationUnavailable)
	_, err = d.Separate(ctx, testUnit("u1"), domain.StemDrums)
	require.ErrorIs(t, err, domain.ErrSeparationUnavailable)
	assert.Equal(t, int32(1), fake.calls.Load())

	// Failed runs leave nothing behind.
	entries, err := os.ReadDir(d.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	fake.err = nil
	d.Forget("u1")
	_, err = d.Separate(ctx, testUnit("u1"), domain.StemVocals)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load())
}
