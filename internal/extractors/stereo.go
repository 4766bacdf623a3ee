package extractors

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*StereoPhase)(nil)

// StereoPhase measures stereo image width and channel coherence.
// Generated stereo is often near-mono or carries phase-smeared sides.
type StereoPhase struct{}

// NewStereoPhase creates a stereo phase extractor.
func NewStereoPhase() *StereoPhase {
	return &StereoPhase{}
}

// Name returns the extractor identifier.
func (e *StereoPhase) Name() string { return domain.ExtractorStereoPhase }

// Requirements returns the extractor's input requirements.
func (e *StereoPhase) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: time.Second, Channels: 2}
}

// Metrics returns the metrics the extractor emits.
func (e *StereoPhase) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricSideMidRatio, Discriminating: true},
		{Name: domain.MetricStereoCorr},
	}
}

// Analyze computes the side to mid energy ratio and the left/right
// correlation over the first two channels.
func (e *StereoPhase) Analyze(unit domain.AudioUnit, _ domain.ExtractorConfig) domain.FeatureResult {
	if unit.Channels < 2 {
		return domain.InvalidResult(e.Name(), "stereo input required")
	}
	left := head(unit.Buffer.Channel(0), unit.SampleRate, tempoSeconds)
	right := head(unit.Buffer.Channel(1), unit.SampleRate, tempoSeconds)
	if len(left) == 0 || len(left) != len(right) {
		return domain.InvalidResult(e.Name(), "channel data missing")
	}

	mid := make([]float64, len(left))
	side := make([]float64, len(left))
	for i := range left {
		mid[i] = (left[i] + right[i]) / 2
		side[i] = (left[i] - right[i]) / 2
	}
	midEnergy := floats.Dot(mid, mid)
	if midEnergy <= 1e-12 {
		return domain.InvalidResult(e.Name(), "mid channel is silent")
	}

	metrics := map[string]float64{
		domain.MetricSideMidRatio: floats.Dot(side, side) / midEnergy,
	}
	// Correlation is undefined when either channel is constant.
	if corr := stat.Correlation(left, right, nil); !math.IsNaN(corr) {
		metrics[domain.MetricStereoCorr] = corr
	}
	return domain.NewFeatureResult(e.Name(), metrics)
}
