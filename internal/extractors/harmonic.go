package extractors

import (
	"sort"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*HarmonicBalance)(nil)

const (
	// hpssKernel is the median filter length in frames and in bins.
	hpssKernel  = 17
	hpssSeconds = 30.0
	minHPSS     = 8
)

// HarmonicBalance separates harmonic from percussive energy by median
// filtering the spectrogram along time and along frequency.
type HarmonicBalance struct{}

// NewHarmonicBalance creates a harmonic/percussive balance extractor.
func NewHarmonicBalance() *HarmonicBalance {
	return &HarmonicBalance{}
}

// Name returns the extractor identifier.
func (e *HarmonicBalance) Name() string { return domain.ExtractorHarmonicBalance }

// Requirements returns the extractor's input requirements.
func (e *HarmonicBalance) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 2 * time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *HarmonicBalance) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricHarmonicRatio, Resolution: 0.02},
	}
}

// Analyze applies soft Wiener masks built from the two filtered
// spectrograms and reports the harmonic share of total masked energy.
func (e *HarmonicBalance) Analyze(unit domain.AudioUnit, _ domain.ExtractorConfig) domain.FeatureResult {
	x := head(unit.Buffer.Mono(), unit.SampleRate, hpssSeconds)
	spec := computeSpectrogram(x, unit.SampleRate, defaultFrameSize, defaultHop, 0)
	if len(spec.mags) < minHPSS {
		return domain.InvalidResult(e.Name(), "clip too short for harmonic separation")
	}

	harm := medianAlongTime(spec.mags, hpssKernel)
	perc := medianAlongFrequency(spec.mags, hpssKernel)

	var eh, ep float64
	for i, mag := range spec.mags {
		for k, s := range mag {
			h2 := harm[i][k] * harm[i][k]
			p2 := perc[i][k] * perc[i][k]
			if h2+p2 == 0 {
				continue
			}
			m := h2 / (h2 + p2)
			eh += (m * s) * (m * s)
			ep += ((1 - m) * s) * ((1 - m) * s)
		}
	}
	if eh+ep <= 0 {
		return domain.InvalidResult(e.Name(), "signal is silent")
	}

	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricHarmonicRatio: eh / (eh + ep),
	})
}

// medianAlongTime filters each frequency bin across neighbouring frames.
// Windows are clipped at the edges.
func medianAlongTime(mags [][]float64, size int) [][]float64 {
	out := make([][]float64, len(mags))
	for i := range out {
		out[i] = make([]float64, len(mags[i]))
	}
	half := size / 2
	scratch := make([]float64, 0, size)
	for k := range mags[0] {
		for i := range mags {
			lo, hi := clampWindow(i, half, len(mags))
			scratch = scratch[:0]
			for j := lo; j < hi; j++ {
				scratch = append(scratch, mags[j][k])
			}
			out[i][k] = sortedMedian(scratch)
		}
	}
	return out
}

// medianAlongFrequency filters each frame across neighbouring bins.
func medianAlongFrequency(mags [][]float64, size int) [][]float64 {
	out := make([][]float64, len(mags))
	half := size / 2
	scratch := make([]float64, 0, size)
	for i, mag := range mags {
		out[i] = make([]float64, len(mag))
		for k := range mag {
			lo, hi := clampWindow(k, half, len(mag))
			scratch = append(scratch[:0], mag[lo:hi]...)
			out[i][k] = sortedMedian(scratch)
		}
	}
	return out
}

func clampWindow(centre, half, n int) (int, int) {
	lo, hi := centre-half, centre+half+1
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// sortedMedian sorts values in place and returns the median.
func sortedMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
