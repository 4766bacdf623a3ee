package extractors

import (
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var (
	_ driven.FeatureExtractor = (*SunoFingerprint)(nil)
	_ driven.FeatureExtractor = (*UdioFingerprint)(nil)
)

const (
	sunoBandHz   = 16000.0
	udioLowHz    = 4000.0
	udioHighHz   = 12000.0
	chirpFrame   = 1024
	chirpRun     = 3
	chirpSeconds = 60.0
)

// SunoFingerprint measures the ultrasonic sheen left by one family of
// generators: residual energy above 16 kHz in otherwise band-limited audio.
type SunoFingerprint struct{}

// NewSunoFingerprint creates a Suno fingerprint extractor.
func NewSunoFingerprint() *SunoFingerprint {
	return &SunoFingerprint{}
}

// Name returns the extractor identifier.
func (e *SunoFingerprint) Name() string { return domain.ExtractorFingerprintSuno }

// Requirements returns the extractor's input requirements.
func (e *SunoFingerprint) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *SunoFingerprint) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricSunoHFRatio, CodecSensitive: true, Discriminating: true},
	}
}

// Analyze returns the share of spectral energy above 16 kHz.
func (e *SunoFingerprint) Analyze(unit domain.AudioUnit, _ domain.ExtractorConfig) domain.FeatureResult {
	if float64(unit.SampleRate)/2 <= sunoBandHz+1000 {
		return domain.InvalidResult(e.Name(), "sample rate too low for high-band analysis")
	}
	spec := computeSpectrogram(unit.Buffer.Mono(), unit.SampleRate, defaultFrameSize, defaultHop, maxFrames)
	mean := spec.meanSpectrum()
	total := energy(mean, 0, len(mean))
	if total <= 0 {
		return domain.InvalidResult(e.Name(), "signal is silent")
	}
	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricSunoHFRatio: energy(mean, spec.bin(sunoBandHz), len(mean)) / total,
	})
}

// UdioFingerprint measures short monotonic chirps in the upper-mid band,
// an artefact of another generator family's upsampler.
type UdioFingerprint struct{}

// NewUdioFingerprint creates a Udio fingerprint extractor.
func NewUdioFingerprint() *UdioFingerprint {
	return &UdioFingerprint{}
}

// Name returns the extractor identifier.
func (e *UdioFingerprint) Name() string { return domain.ExtractorFingerprintUdio }

// Requirements returns the extractor's input requirements.
func (e *UdioFingerprint) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 2 * time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *UdioFingerprint) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricUdioChirpRate, Discriminating: true},
	}
}

// Analyze returns the fraction of active frames whose 4-12 kHz peak has
// moved in one direction for three consecutive frames.
//
// Supported config keys:
//   - band_share (float): Minimum band energy share for an active frame (default: 0.01)
func (e *UdioFingerprint) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	if float64(unit.SampleRate)/2 <= udioHighHz {
		return domain.InvalidResult(e.Name(), "sample rate too low for chirp analysis")
	}
	share := cfg.Float("band_share", 0.01)
	x := head(unit.Buffer.Mono(), unit.SampleRate, chirpSeconds)
	spec := computeSpectrogram(x, unit.SampleRate, chirpFrame, chirpFrame, 0)
	lo, hi := spec.bin(udioLowHz), spec.bin(udioHighHz)

	active, chirps := 0, 0
	// peaks holds the band peak of recent consecutive active frames.
	var peaks []int
	for _, mag := range spec.mags {
		total := energy(mag, 0, len(mag))
		band := energy(mag, lo, hi+1)
		if total <= 0 || band < share*total {
			peaks = peaks[:0]
			continue
		}
		active++

		peak := lo
		for k := lo; k <= hi; k++ {
			if mag[k] > mag[peak] {
				peak = k
			}
		}
		peaks = append(peaks, peak)
		if len(peaks) > chirpRun {
			peaks = peaks[1:]
		}
		if len(peaks) == chirpRun && monotonic(peaks) {
			chirps++
		}
	}
	if active == 0 {
		return domain.InvalidResult(e.Name(), "no energy in chirp band")
	}
	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricUdioChirpRate: float64(chirps) / float64(active),
	})
}

// monotonic reports whether p moves strictly in one direction.
func monotonic(p []int) bool {
	up, down := true, true
	for i := 1; i < len(p); i++ {
		if p[i] <= p[i-1] {
			up = false
		}
		if p[i] >= p[i-1] {
			down = false
		}
	}
	return up || down
}
