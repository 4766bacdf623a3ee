package extractors

import (
	"math"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*VocalPitch)(nil)

const (
	pitchFrameSize = 2048
	pitchHop       = 1024
	pitchMinHz     = 80.0
	pitchMaxHz     = 1000.0
	minVoicedRMS   = 0.01
	minVoiced      = 10
)

// VocalPitch measures how tightly sung pitch sits on the equal-tempered
// grid. Heavy pitch correction and synthesis pin notes to exact semitones.
type VocalPitch struct{}

// NewVocalPitch creates a vocal pitch extractor.
func NewVocalPitch() *VocalPitch {
	return &VocalPitch{}
}

// Name returns the extractor identifier.
func (e *VocalPitch) Name() string { return domain.ExtractorVocalPitch }

// Requirements returns the extractor's input requirements.
func (e *VocalPitch) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 3 * time.Second, Stem: domain.StemVocals}
}

// Metrics returns the metrics the extractor emits.
func (e *VocalPitch) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricPitchDeviation, Discriminating: true},
		{Name: domain.MetricVoicedRatio, Resolution: 0.02},
	}
}

// Analyze estimates a fundamental per frame and averages the distance
// from the nearest semitone over voiced frames.
//
// Supported config keys:
//   - voicing (float): Normalised autocorrelation needed to call a frame voiced (default: 0.5)
func (e *VocalPitch) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	voicing := cfg.Float("voicing", 0.5)
	x := head(unit.Buffer.Mono(), unit.SampleRate, tempoSeconds)
	if len(x) < pitchFrameSize {
		return domain.InvalidResult(e.Name(), "clip too short for pitch tracking")
	}

	tracker := newPitchTracker(unit.SampleRate)
	var deviations []float64
	frames := 0
	for start := 0; start+pitchFrameSize <= len(x); start += pitchHop {
		frames++
		hz, ok := tracker.estimate(x[start:start+pitchFrameSize], voicing)
		if !ok {
			continue
		}
		midi := hzToMIDI(hz)
		deviations = append(deviations, math.Abs(midi-math.Round(midi)))
	}
	if len(deviations) < minVoiced {
		return domain.InvalidResult(e.Name(), "not enough voiced frames")
	}

	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricPitchDeviation: stat.Mean(deviations, nil),
		domain.MetricVoicedRatio:    float64(len(deviations)) / float64(frames),
	})
}

// pitchTracker computes autocorrelation through a zero-padded FFT.
type pitchTracker struct {
	sampleRate int
	fft        *fourier.FFT
	buf        []float64
	coeffs     []complex128
	ac         []float64
	minLag     int
	maxLag     int
}

func newPitchTracker(sampleRate int) *pitchTracker {
	n := 2 * pitchFrameSize
	maxLag := int(math.Ceil(float64(sampleRate) / pitchMinHz))
	if maxLag > pitchFrameSize/2 {
		maxLag = pitchFrameSize / 2
	}
	return &pitchTracker{
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(n),
		buf:        make([]float64, n),
		coeffs:     make([]complex128, n/2+1),
		ac:         make([]float64, n),
		minLag:     int(math.Floor(float64(sampleRate) / pitchMaxHz)),
		maxLag:     maxLag,
	}
}

// estimate returns the fundamental of frame, or false when the frame is
// quiet or aperiodic.
func (t *pitchTracker) estimate(frame []float64, voicing float64) (float64, bool) {
	if math.Sqrt(floats.Dot(frame, frame)/float64(len(frame))) < minVoicedRMS {
		return 0, false
	}
	if t.minLag < 1 || t.maxLag <= t.minLag+1 {
		return 0, false
	}

	copy(t.buf, frame)
	for i := len(frame); i < len(t.buf); i++ {
		t.buf[i] = 0
	}
	t.coeffs = t.fft.Coefficients(t.coeffs, t.buf)
	for k, c := range t.coeffs {
		t.coeffs[k] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	t.ac = t.fft.Sequence(t.ac, t.coeffs)

	zero := t.ac[0]
	if zero <= 0 {
		return 0, false
	}
	// Unbias each lag for the shrinking overlap.
	n := float64(len(frame))
	norm := make([]float64, t.maxLag+2)
	for lag := 0; lag < len(norm); lag++ {
		norm[lag] = t.ac[lag] / zero * n / (n - float64(lag))
	}

	best := -1
	for lag := t.minLag; lag <= t.maxLag; lag++ {
		if norm[lag] >= norm[lag-1] && norm[lag] >= norm[lag+1] && (best < 0 || norm[lag] > norm[best]) {
			best = lag
		}
	}
	if best < 0 || norm[best] < voicing {
		return 0, false
	}

	// Prefer the shortest lag close to the best peak to avoid octave errors.
	for lag := t.minLag; lag < best; lag++ {
		if norm[lag] >= norm[lag-1] && norm[lag] >= norm[lag+1] && norm[lag] >= 0.9*norm[best] {
			best = lag
			break
		}
	}

	period := float64(best) + parabolicPeak(norm, best)
	return float64(t.sampleRate) / period, true
}
