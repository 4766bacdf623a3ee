package extractors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func TestSunoFingerprint_Analyze(t *testing.T) {
	e := NewSunoFingerprint()

	t.Run("broadband noise", func(t *testing.T) {
		res := e.Analyze(mono(44100, 2, whiteNoise(9, 0.5)), nil)
		require.True(t, res.Valid, res.Notes)
		assert.Greater(t, res.Metrics[domain.MetricSunoHFRatio], 0.05)
	})

	t.Run("low tone", func(t *testing.T) {
		res := e.Analyze(mono(44100, 2, sine(1000, 0.5)), nil)
		require.True(t, res.Valid, res.Notes)
		assert.Less(t, res.Metrics[domain.MetricSunoHFRatio], 0.001)
	})

	t.Run("low sample rate", func(t *testing.T) {
		res := e.Analyze(mono(32000, 2, whiteNoise(9, 0.5)), nil)
		assert.False(t, res.Valid)
	})
}

func TestUdioFingerprint_Analyze(t *testing.T) {
	e := NewUdioFingerprint()
	const sr = 44100

	t.Run("repeating sweep", func(t *testing.T) {
		sweep := func(_ int, t float64) float64 {
			f := t - math.Floor(t)
			return 0.5 * math.Sin(2*math.Pi*(5000*f+3000*f*f))
		}
		res := e.Analyze(mono(sr, 3, sweep), nil)
		require.True(t, res.Valid, res.Notes)
		assert.Greater(t, res.Metrics[domain.MetricUdioChirpRate], 0.5)
	})

	t.Run("steady tone", func(t *testing.T) {
		res := e.Analyze(mono(sr, 3, sine(8000, 0.5)), nil)
		require.True(t, res.Valid, res.Notes)
		assert.Equal(t, 0.0, res.Metrics[domain.MetricUdioChirpRate])
	})

	t.Run("no band energy", func(t *testing.T) {
		res := e.Analyze(mono(sr, 3, sine(500, 0.5)), nil)
		assert.False(t, res.Valid)
	})

	t.Run("low sample rate", func(t *testing.T) {
		res := e.Analyze(mono(22050, 3, whiteNoise(3, 0.5)), nil)
		assert.False(t, res.Valid)
	})

	assert.True(t, monotonic([]int{1, 2, 3}))
	assert.True(t, monotonic([]int{3, 2, 1}))
	assert.False(t, monotonic([]int{1, 1, 2}))
}
