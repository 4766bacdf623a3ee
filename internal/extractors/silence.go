package extractors

import (
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*SilenceEntropy)(nil)

// SilenceEntropy measures the distribution of silence and the harmonic
// variety of a clip. Generated clips rarely breathe and often sit on a
// narrow set of pitch classes.
type SilenceEntropy struct{}

// NewSilenceEntropy creates a silence and entropy extractor.
func NewSilenceEntropy() *SilenceEntropy {
	return &SilenceEntropy{}
}

// Name returns the extractor identifier.
func (e *SilenceEntropy) Name() string { return domain.ExtractorSilenceEntropy }

// Requirements returns the extractor's input requirements.
func (e *SilenceEntropy) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 5 * time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *SilenceEntropy) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricSilenceRatio, Resolution: 0.01},
		{Name: domain.MetricMeanGap, Resolution: 0.05},
		{Name: domain.MetricChromaEntropy, Discriminating: true},
	}
}

// Analyze reports the fraction of silent frames, the mean silent gap in
// seconds and the entropy of the pitch-class energy distribution.
//
// Supported config keys:
//   - silence_db (float): Frame level treated as silence (default: -50)
func (e *SilenceEntropy) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	threshold := cfg.Float("silence_db", silenceDB)
	x := unit.Buffer.Mono()

	levels := frameRMS(x, defaultFrameSize, defaultHop)
	if len(levels) == 0 {
		return domain.InvalidResult(e.Name(), "clip too short for silence analysis")
	}

	silent, gaps, run := 0, 0, 0
	var gapFrames int
	for _, level := range levels {
		if toDB(level) < threshold {
			silent++
			run++
			continue
		}
		if run > 0 {
			gaps++
			gapFrames += run
			run = 0
		}
	}
	if run > 0 {
		gaps++
		gapFrames += run
	}
	if silent == len(levels) {
		return domain.InvalidResult(e.Name(), "signal is silent")
	}

	meanGap := 0.0
	if gaps > 0 {
		meanGap = float64(gapFrames) / float64(gaps) * defaultHop / float64(unit.SampleRate)
	}

	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricSilenceRatio:  float64(silent) / float64(len(levels)),
		domain.MetricMeanGap:       meanGap,
		domain.MetricChromaEntropy: chromaEntropy(x, unit.SampleRate),
	})
}

// chromaEntropy folds spectral energy onto the twelve pitch classes and
// returns the Shannon entropy of the result in bits.
func chromaEntropy(x []float64, sampleRate int) float64 {
	spec := computeSpectrogram(x, sampleRate, defaultFrameSize, defaultHop, maxFrames)
	chroma := make([]float64, 12)
	for _, mag := range spec.mags {
		spec.addChroma(chroma, mag)
	}
	return shannonEntropy(chroma)
}
