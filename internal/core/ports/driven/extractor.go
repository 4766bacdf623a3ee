package driven

import "github.com/custodia-labs/musictruth-cli/internal/core/domain"

// FeatureExtractor analyses one audio unit and produces a typed partial result.
// Extractors share no mutable state and must treat the unit's buffer as read-only.
type FeatureExtractor interface {
	// Name returns the unique extractor identifier.
	Name() string

	// Requirements declares minimum duration, channel count and stem.
	Requirements() domain.Requirements

	// Metrics declares every metric the extractor may emit.
	Metrics() []domain.MetricSpec

	// Analyze runs the extractor. Failures are reported as an invalid
	// FeatureResult, never as a panic or error return.
	Analyze(unit domain.AudioUnit, cfg domain.ExtractorConfig) domain.FeatureResult
}

// SelectedExtractor pairs an extractor with its registration index.
type SelectedExtractor struct {
	Extractor FeatureExtractor
	Index     int
	Config    domain.ExtractorConfig
}

// ExtractorRegistry resolves the extractor set for an analysis mode.
type ExtractorRegistry interface {
	// Select returns the mode's extractors in registration order.
	// Fails with domain.ErrInvalidMode if the mode cannot be satisfied.
	Select(mode domain.AnalysisMode, profile domain.ModeProfile) ([]SelectedExtractor, error)

	// Specs returns every registered metric spec keyed by metric name.
	Specs() map[string]domain.MetricSpec

	// Names returns registered extractor names in registration order.
	Names() []string

	// All returns registered extractors in registration order.
	All() []FeatureExtractor
}
