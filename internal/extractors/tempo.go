package extractors

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*TempoStability)(nil)

const (
	onsetFrameSize = 1024
	onsetHop       = 256
	minBPM         = 60.0
	maxBPM         = 200.0
	// tempoSeconds bounds how much of the clip is beat-tracked.
	tempoSeconds = 120.0
)

// TempoStability measures how evenly beats are spaced.
// Performed music drifts; sequenced and generated music often does not.
type TempoStability struct{}

// NewTempoStability creates a tempo stability extractor.
func NewTempoStability() *TempoStability {
	return &TempoStability{}
}

// Name returns the extractor identifier.
func (e *TempoStability) Name() string { return domain.ExtractorTempoStability }

// Requirements returns the extractor's input requirements.
func (e *TempoStability) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 5 * time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *TempoStability) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricTempoBPM, Resolution: 0.5},
		{Name: domain.MetricTempoCV, Discriminating: true},
	}
}

// Analyze tracks beats on a spectral-flux onset envelope and reports the
// coefficient of variation of the beat intervals.
func (e *TempoStability) Analyze(unit domain.AudioUnit, _ domain.ExtractorConfig) domain.FeatureResult {
	x := head(unit.Buffer.Mono(), unit.SampleRate, tempoSeconds)
	env := onsetEnvelope(x, unit.SampleRate)
	if len(env) < 16 {
		return domain.InvalidResult(e.Name(), "clip too short for onset analysis")
	}

	frameRate := float64(unit.SampleRate) / onsetHop
	lag, ok := dominantLag(env, frameRate)
	if !ok {
		return domain.InvalidResult(e.Name(), "no periodic onsets")
	}

	beats := trackBeats(env, lag)
	var intervals []float64
	for i := 1; i < len(beats); i++ {
		if beats[i].gap {
			continue
		}
		intervals = append(intervals, (beats[i].pos-beats[i-1].pos)/frameRate)
	}
	if len(intervals) < 3 {
		return domain.InvalidResult(e.Name(), "too few beats tracked")
	}

	mean, std := stat.MeanStdDev(intervals, nil)
	if mean <= 0 {
		return domain.InvalidResult(e.Name(), "degenerate beat intervals")
	}
	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricTempoBPM: 60 / mean,
		domain.MetricTempoCV:  std / mean,
	})
}

// onsetEnvelope returns the half-wave rectified spectral flux of x.
func onsetEnvelope(x []float64, sampleRate int) []float64 {
	spec := computeSpectrogram(x, sampleRate, onsetFrameSize, onsetHop, 0)
	if len(spec.mags) < 2 {
		return nil
	}
	env := make([]float64, len(spec.mags))
	for i := 1; i < len(spec.mags); i++ {
		var flux float64
		prev, cur := spec.mags[i-1], spec.mags[i]
		for k := range cur {
			if d := cur[k] - prev[k]; d > 0 {
				flux += d
			}
		}
		env[i] = flux
	}
	return env
}

// dominantLag returns the beat period in frames with the strongest
// autocorrelation inside the tempo range.
func dominantLag(env []float64, frameRate float64) (float64, bool) {
	centred := append([]float64(nil), env...)
	floats.AddConst(-stat.Mean(centred, nil), centred)

	lo := int(math.Floor(frameRate * 60 / maxBPM))
	hi := int(math.Ceil(frameRate * 60 / minBPM))
	if hi >= len(centred)/2 {
		hi = len(centred)/2 - 1
	}
	if lo < 1 || hi <= lo+1 {
		return 0, false
	}

	ac := make([]float64, hi+2)
	for lag := lo - 1; lag <= hi+1; lag++ {
		ac[lag] = floats.Dot(centred[:len(centred)-lag], centred[lag:])
	}

	best := -1
	for lag := lo; lag <= hi; lag++ {
		if best < 0 || ac[lag] > ac[best] {
			best = lag
		}
	}
	if ac[best] <= 0 {
		return 0, false
	}
	return float64(best) + parabolicPeak(ac, best), true
}

type beat struct {
	pos float64
	// gap marks a beat found after one or more missing beats.
	gap bool
}

// trackBeats walks the envelope one period at a time, snapping each
// expected beat to the strongest onset within a fifth of a period.
func trackBeats(env []float64, lag float64) []beat {
	threshold := stat.Mean(env, nil)
	window := int(math.Max(1, lag/5))

	first := 0
	for i := 1; i < len(env) && float64(i) < lag; i++ {
		if env[i] > env[first] {
			first = i
		}
	}

	var beats []beat
	if env[first] > threshold {
		beats = append(beats, beat{pos: float64(first) + parabolicPeak(env, first)})
	}

	missed := false
	expected := float64(first) + lag
	for {
		centre := int(math.Round(expected))
		if centre+window >= len(env) {
			break
		}
		best := centre
		for i := centre - window; i <= centre+window; i++ {
			if env[i] > env[best] {
				best = i
			}
		}
		if env[best] <= threshold {
			missed = true
			expected += lag
			continue
		}
		pos := float64(best) + parabolicPeak(env, best)
		beats = append(beats, beat{pos: pos, gap: missed || len(beats) == 0})
		missed = false
		expected = pos + lag
	}
	return beats
}
