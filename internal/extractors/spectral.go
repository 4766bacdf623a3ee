package extractors

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var (
	_ driven.FeatureExtractor = (*SpectralCutoff)(nil)
	_ driven.FeatureExtractor = (*SpectralPeaks)(nil)
)

// SpectralCutoff measures where the spectrum's energy ends.
// Generators and lossy codecs band-limit output well below Nyquist.
type SpectralCutoff struct{}

// NewSpectralCutoff creates a spectral cutoff extractor.
func NewSpectralCutoff() *SpectralCutoff {
	return &SpectralCutoff{}
}

// Name returns the extractor identifier.
func (e *SpectralCutoff) Name() string { return domain.ExtractorSpectralCutoff }

// Requirements returns the extractor's input requirements.
func (e *SpectralCutoff) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *SpectralCutoff) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricCutoffHz, CodecSensitive: true, Discriminating: true},
		{Name: domain.MetricRolloffStd, CodecSensitive: true},
	}
}

// Analyze computes the mean and spread of the 99% rolloff frequency over
// non-silent frames.
//
// Supported config keys:
//   - rolloff (float): Energy fraction defining the cutoff (default: 0.99)
func (e *SpectralCutoff) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	frac := cfg.Float("rolloff", 0.99)
	spec := computeSpectrogram(unit.Buffer.Mono(), unit.SampleRate, defaultFrameSize, defaultHop, maxFrames)

	// Silent frames have no meaningful rolloff.
	floor := float64(defaultFrameSize) * 1e-6
	var rolloffs []float64
	for _, mag := range spec.mags {
		if energy(mag, 0, len(mag)) < floor {
			continue
		}
		rolloffs = append(rolloffs, rolloff(mag, spec.binHz, frac))
	}
	if len(rolloffs) == 0 {
		return domain.InvalidResult(e.Name(), "signal is silent")
	}

	mean, std := stat.MeanStdDev(rolloffs, nil)
	if len(rolloffs) == 1 {
		std = 0
	}
	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricCutoffHz:   mean,
		domain.MetricRolloffStd: std,
	})
}

// SpectralPeaks measures how smooth the high-frequency spectrum is.
// Neural vocoders tend to leave an unnaturally regular upper spectrum.
type SpectralPeaks struct{}

// NewSpectralPeaks creates a spectral peaks extractor.
func NewSpectralPeaks() *SpectralPeaks {
	return &SpectralPeaks{}
}

// Name returns the extractor identifier.
func (e *SpectralPeaks) Name() string { return domain.ExtractorSpectralPeaks }

// Requirements returns the extractor's input requirements.
func (e *SpectralPeaks) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *SpectralPeaks) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricPeakVariance, CodecSensitive: true, Discriminating: true},
	}
}

// Analyze returns the variance of the second difference of the normalised
// mean spectrum above the lower edge.
//
// Supported config keys:
//   - low_hz (float): Lower edge of the analysed band (default: 10000)
func (e *SpectralPeaks) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	lowHz := cfg.Float("low_hz", 10000)
	if float64(unit.SampleRate)/2 <= lowHz+1000 {
		return domain.InvalidResult(e.Name(), "sample rate too low for high-band analysis")
	}

	spec := computeSpectrogram(unit.Buffer.Mono(), unit.SampleRate, defaultFrameSize, defaultHop, maxFrames)
	mean := spec.meanSpectrum()
	if mean == nil {
		return domain.InvalidResult(e.Name(), "clip shorter than one frame")
	}

	band := append([]float64(nil), mean[spec.bin(lowHz):]...)
	peak := floats.Max(band)
	if peak <= 0 {
		return domain.InvalidResult(e.Name(), "no energy above the lower edge")
	}
	floats.Scale(1/peak, band)

	if len(band) < 4 {
		return domain.InvalidResult(e.Name(), "band too narrow")
	}
	diff2 := make([]float64, len(band)-2)
	for i := range diff2 {
		diff2[i] = band[i+2] - 2*band[i+1] + band[i]
	}

	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricPeakVariance: stat.Variance(diff2, nil),
	})
}
