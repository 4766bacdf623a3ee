package extractors

import (
	"math"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*VocalBreath)(nil)

const (
	breathFrameSize = 1024
	breathHop       = 512
	// Breaths sit between silence and sung level.
	breathSilentRMS = 0.001
	breathMaxRMS    = 0.05
	breathMinLength = 0.15
	breathMaxLength = 0.8
)

// VocalBreath looks for breaths between sung phrases. Singers breathe;
// many generated vocals run on without pause or carry no breath noise.
type VocalBreath struct{}

// NewVocalBreath creates a vocal breath extractor.
func NewVocalBreath() *VocalBreath {
	return &VocalBreath{}
}

// Name returns the extractor identifier.
func (e *VocalBreath) Name() string { return domain.ExtractorVocalBreath }

// Requirements returns the extractor's input requirements.
func (e *VocalBreath) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 10 * time.Second, Stem: domain.StemVocals}
}

// Metrics returns the metrics the extractor emits.
func (e *VocalBreath) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricVocalActive, Discriminating: true, Resolution: 0.01},
		{Name: domain.MetricBreathRate, Discriminating: true, Resolution: 0.5},
	}
}

// Analyze reports the fraction of frames above the silence level and the
// number of breaths per minute. A breath is a run of quiet, noise-like
// frames lasting 0.15 to 0.8 seconds.
//
// Supported config keys:
//   - flatness (float): Spectral flatness above which a quiet frame is breath noise (default: 0.3)
func (e *VocalBreath) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	flatness := cfg.Float("flatness", 0.3)
	x := head(unit.Buffer.Mono(), unit.SampleRate, tempoSeconds)

	levels := frameRMS(x, breathFrameSize, breathHop)
	spec := computeSpectrogram(x, unit.SampleRate, breathFrameSize, breathHop, 0)
	n := min(len(levels), len(spec.mags))
	if n == 0 {
		return domain.InvalidResult(e.Name(), "clip too short for breath analysis")
	}

	frameSeconds := float64(breathHop) / float64(unit.SampleRate)
	minRun := int(math.Ceil(breathMinLength / frameSeconds))
	maxRun := int(breathMaxLength / frameSeconds)

	active, breaths, run := 0, 0, 0
	closeRun := func() {
		if run >= minRun && run <= maxRun {
			breaths++
		}
		run = 0
	}
	for i := 0; i < n; i++ {
		level := levels[i]
		if level > breathSilentRMS {
			active++
		}
		if level > breathSilentRMS && level < breathMaxRMS && spectralFlatness(spec.mags[i]) > flatness {
			run++
			continue
		}
		closeRun()
	}
	closeRun()

	if active == 0 {
		return domain.InvalidResult(e.Name(), "no vocal activity")
	}

	minutes := float64(n) * frameSeconds / 60
	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricVocalActive: float64(active) / float64(n),
		domain.MetricBreathRate:  float64(breaths) / minutes,
	})
}
