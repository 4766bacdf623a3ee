package extractors

import (
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// Defaults returns the built-in extractors in registration order.
func Defaults() []driven.FeatureExtractor {
	return []driven.FeatureExtractor{
		NewSpectralCutoff(),
		NewSpectralPeaks(),
		NewTempoStability(),
		NewStereoPhase(),
		NewVocalPitch(),
		NewSilenceEntropy(),
		NewSunoFingerprint(),
		NewUdioFingerprint(),
		NewSpectralContrast(),
		NewZeroCrossing(),
		NewHarmonicBalance(),
		NewStructuralRepetition(),
		NewVocalBreath(),
	}
}

// RegisterDefaults registers every built-in extractor with r.
func RegisterDefaults(r *Registry) error {
	for _, e := range Defaults() {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry creates a registry holding every built-in extractor.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	return r, nil
}
