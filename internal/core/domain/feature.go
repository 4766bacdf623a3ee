package domain

import (
	"math"
	"time"
)

// Requirements declares what an extractor needs from its input.
type Requirements struct {
	// MinDuration is the shortest clip the extractor can analyse.
	MinDuration time.Duration

	// Channels is the exact channel count required. Zero accepts any.
	Channels int

	// Stem is the input the extractor consumes. Empty means the full mix.
	Stem Stem
}

// NeedsSeparation returns true if the extractor consumes a separated stem.
func (r Requirements) NeedsSeparation() bool {
	return r.Stem != "" && r.Stem != StemFullMix
}

// MetricSpec describes one metric an extractor emits.
type MetricSpec struct {
	Name string

	// CodecSensitive marks metrics that lossy encoding moves on its own
	// (band limits, high-frequency energy).
	CodecSensitive bool

	// Discriminating marks metrics that separate generated from performed audio.
	Discriminating bool

	// Resolution is the smallest difference worth reporting, in the
	// metric's unit. Zero means no floor.
	Resolution float64
}

// ExtractorConfig holds per-extractor tuning as generic values.
type ExtractorConfig map[string]any

// Float returns a numeric config value or the default.
func (c ExtractorConfig) Float(key string, def float64) float64 {
	if c == nil {
		return def
	}
	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// FeatureResult is the output of one extractor for one AudioUnit.
type FeatureResult struct {
	Extractor string             `json:"extractor"`
	Metrics   map[string]float64 `json:"metrics"`
	Valid     bool               `json:"valid"`
	Notes     []string           `json:"notes,omitempty"`
}

// NewFeatureResult creates a valid result. Non-finite metrics are dropped
// and noted, and a result left with no metrics is marked invalid.
func NewFeatureResult(extractor string, metrics map[string]float64, notes ...string) FeatureResult {
	clean := make(map[string]float64, len(metrics))
	for name, v := range metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			notes = append(notes, "dropped non-finite metric "+name)
			continue
		}
		clean[name] = v
	}
	return FeatureResult{
		Extractor: extractor,
		Metrics:   clean,
		Valid:     len(clean) > 0,
		Notes:     notes,
	}
}

// InvalidResult records an extraction failure.
func InvalidResult(extractor, reason string) FeatureResult {
	return FeatureResult{
		Extractor: extractor,
		Metrics:   map[string]float64{},
		Valid:     false,
		Notes:     []string{ErrExtractionFailure.Error() + ": " + reason},
	}
}
