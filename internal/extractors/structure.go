package extractors

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

var _ driven.FeatureExtractor = (*StructuralRepetition)(nil)

const (
	structFrameSize = 4096
	structHop       = 2048
	// structSteps chroma frames, structDelay frames apart, form one
	// context vector.
	structSteps = 4
	structDelay = 2
	// structMinLag excludes pairs whose context windows overlap.
	structMinLag = structSteps * structDelay
)

// StructuralRepetition measures how much of a clip recurs. Loop-based
// generation repeats short passages almost exactly.
type StructuralRepetition struct{}

// NewStructuralRepetition creates a structural repetition extractor.
func NewStructuralRepetition() *StructuralRepetition {
	return &StructuralRepetition{}
}

// Name returns the extractor identifier.
func (e *StructuralRepetition) Name() string { return domain.ExtractorStructure }

// Requirements returns the extractor's input requirements.
func (e *StructuralRepetition) Requirements() domain.Requirements {
	return domain.Requirements{MinDuration: 10 * time.Second}
}

// Metrics returns the metrics the extractor emits.
func (e *StructuralRepetition) Metrics() []domain.MetricSpec {
	return []domain.MetricSpec{
		{Name: domain.MetricRecurrence, Discriminating: true, Resolution: 0.02},
	}
}

// Analyze stacks consecutive chroma frames into context vectors and
// reports the fraction of non-overlapping vector pairs whose cosine
// similarity reaches the threshold.
//
// Supported config keys:
//   - similarity (float): Cosine similarity counted as a recurrence (default: 0.9)
func (e *StructuralRepetition) Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult {
	similarity := cfg.Float("similarity", 0.9)
	x := head(unit.Buffer.Mono(), unit.SampleRate, tempoSeconds)
	spec := computeSpectrogram(x, unit.SampleRate, structFrameSize, structHop, 0)

	chroma := make([][]float64, len(spec.mags))
	for i, mag := range spec.mags {
		c := make([]float64, 12)
		spec.addChroma(c, mag)
		if norm := floats.Norm(c, 2); norm > 1e-9 {
			floats.Scale(1/norm, c)
			chroma[i] = c
		}
	}

	type stackedFrame struct {
		frame int
		vec   []float64
	}
	var stacked []stackedFrame
	for i := (structSteps - 1) * structDelay; i < len(chroma); i++ {
		vec := make([]float64, 0, 12*structSteps)
		for s := 0; s < structSteps; s++ {
			c := chroma[i-s*structDelay]
			if c == nil {
				vec = nil
				break
			}
			vec = append(vec, c...)
		}
		if vec == nil {
			continue
		}
		floats.Scale(1/floats.Norm(vec, 2), vec)
		stacked = append(stacked, stackedFrame{frame: i, vec: vec})
	}

	var pairs, hits int
	for i := range stacked {
		for j := i + 1; j < len(stacked); j++ {
			if stacked[j].frame-stacked[i].frame < structMinLag {
				continue
			}
			pairs++
			if floats.Dot(stacked[i].vec, stacked[j].vec) >= similarity {
				hits++
			}
		}
	}
	if pairs == 0 {
		return domain.InvalidResult(e.Name(), "not enough tonal frames for structure analysis")
	}

	return domain.NewFeatureResult(e.Name(), map[string]float64{
		domain.MetricRecurrence: float64(hits) / float64(pairs),
	})
}
