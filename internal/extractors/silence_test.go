package extractors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func TestSilenceEntropy_Analyze(t *testing.T) {
	e := NewSilenceEntropy()
	const sr = 22050

	t.Run("continuous tone", func(t *testing.T) {
		res := e.Analyze(mono(sr, 6, sine(440, 0.5)), nil)
		require.True(t, res.Valid, res.Notes)
		assert.Equal(t, 0.0, res.Metrics[domain.MetricSilenceRatio])
		assert.Equal(t, 0.0, res.Metrics[domain.MetricMeanGap])
		assert.Less(t, res.Metrics[domain.MetricChromaEntropy], 1.0)
	})

	t.Run("gated tone", func(t *testing.T) {
		gated := func(_ int, t float64) float64 {
			if int(math.Floor(t))%2 == 1 {
				return 0
			}
			return 0.5 * math.Sin(2*math.Pi*440*t)
		}
		res := e.Analyze(mono(sr, 10, gated), nil)
		require.True(t, res.Valid, res.Notes)
		assert.InDelta(t, 0.5, res.Metrics[domain.MetricSilenceRatio], 0.08)
		assert.InDelta(t, 0.9, res.Metrics[domain.MetricMeanGap], 0.1)
	})

	t.Run("noise spreads pitch classes", func(t *testing.T) {
		res := e.Analyze(mono(sr, 6, whiteNoise(5, 0.5)), nil)
		require.True(t, res.Valid, res.Notes)
		assert.Greater(t, res.Metrics[domain.MetricChromaEntropy], 3.0)
	})

	t.Run("silence is invalid", func(t *testing.T) {
		res := e.Analyze(mono(sr, 6, func(int, float64) float64 { return 0 }), nil)
		assert.False(t, res.Valid)
	})
}
