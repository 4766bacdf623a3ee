package extractors

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func TestStereoPhase_Analyze(t *testing.T) {
	e := NewStereoPhase()
	tone := func(t float64) float64 { return 0.5 * math.Sin(2*math.Pi*440*t) }

	t.Run("dual mono", func(t *testing.T) {
		res := e.Analyze(stereo(22050, 2, tone, tone), nil)
		require.True(t, res.Valid, res.Notes)
		assert.InDelta(t, 0, res.Metrics[domain.MetricSideMidRatio], 1e-9)
		assert.InDelta(t, 1, res.Metrics[domain.MetricStereoCorr], 1e-6)
	})

	t.Run("independent channels", func(t *testing.T) {
		l := rand.New(rand.NewSource(1))
		r := rand.New(rand.NewSource(2))
		res := e.Analyze(stereo(22050, 2,
			func(float64) float64 { return l.Float64() - 0.5 },
			func(float64) float64 { return r.Float64() - 0.5 },
		), nil)
		require.True(t, res.Valid, res.Notes)
		assert.InDelta(t, 1, res.Metrics[domain.MetricSideMidRatio], 0.1)
		assert.InDelta(t, 0, res.Metrics[domain.MetricStereoCorr], 0.05)
	})

	t.Run("inverted channels leave no mid", func(t *testing.T) {
		inv := func(t float64) float64 { return -tone(t) }
		res := e.Analyze(stereo(22050, 2, tone, inv), nil)
		assert.False(t, res.Valid)
	})

	t.Run("mono input", func(t *testing.T) {
		res := e.Analyze(mono(22050, 2, sine(440, 0.5)), nil)
		assert.False(t, res.Valid)
	})

	assert.Equal(t, 2, e.Requirements().Channels)
}
