package extractors

import (
	"fmt"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry holds extractors in registration order.
// Registration order is the tie-break order for detection reasons.
type Registry struct {
	extractors []driven.FeatureExtractor
	byName     map[string]int
	metrics    map[string]string
	specs      map[string]domain.MetricSpec
	configs    map[string]domain.ExtractorConfig
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]int),
		metrics: make(map[string]string),
		specs:   make(map[string]domain.MetricSpec),
		configs: make(map[string]domain.ExtractorConfig),
	}
}

// Register adds an extractor. Names must be unique, and no two extractors
// may declare the same metric.
func (r *Registry) Register(e driven.FeatureExtractor) error {
	name := e.Name()
	if name == "" {
		return fmt.Errorf("%w: extractor name is required", domain.ErrInvalidInput)
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: extractor %q already registered", domain.ErrInvalidInput, name)
	}

	specs := e.Metrics()
	if len(specs) == 0 {
		return fmt.Errorf("%w: extractor %q declares no metrics", domain.ErrInvalidInput, name)
	}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if owner, ok := r.metrics[spec.Name]; ok {
			return fmt.Errorf("%w: %q declared by %q and %q", domain.ErrDuplicateMetric, spec.Name, owner, name)
		}
		if seen[spec.Name] {
			return fmt.Errorf("%w: %q declared twice by %q", domain.ErrDuplicateMetric, spec.Name, name)
		}
		seen[spec.Name] = true
	}

	r.byName[name] = len(r.extractors)
	r.extractors = append(r.extractors, e)
	for _, spec := range specs {
		r.metrics[spec.Name] = name
		r.specs[spec.Name] = spec
	}
	return nil
}

// Configure sets per-extractor tuning passed to Analyze.
func (r *Registry) Configure(name string, cfg domain.ExtractorConfig) {
	r.configs[name] = cfg
}

// Has returns true if an extractor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Get returns an extractor and its registration index.
func (r *Registry) Get(name string) (driven.FeatureExtractor, int, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, 0, false
	}
	return r.extractors[idx], idx, true
}

// Names returns registered extractor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// All returns registered extractors in registration order.
func (r *Registry) All() []driven.FeatureExtractor {
	return append([]driven.FeatureExtractor(nil), r.extractors...)
}

// Specs returns every registered metric spec keyed by metric name.
func (r *Registry) Specs() map[string]domain.MetricSpec {
	out := make(map[string]domain.MetricSpec, len(r.specs))
	for k, v := range r.specs {
		out[k] = v
	}
	return out
}

// Select returns the profile's extractors in registration order.
// Profile entries that are not registered are skipped; the selection fails
// when fewer than profile.MinExtractors remain.
func (r *Registry) Select(mode domain.AnalysisMode, profile domain.ModeProfile) ([]driven.SelectedExtractor, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	want := make(map[string]bool, len(profile.Extractors))
	for _, name := range profile.Extractors {
		want[name] = true
	}

	var selected []driven.SelectedExtractor
	for i, e := range r.extractors {
		if !want[e.Name()] {
			continue
		}
		selected = append(selected, driven.SelectedExtractor{
			Extractor: e,
			Index:     i,
			Config:    r.configs[e.Name()],
		})
	}

	if len(selected) == 0 || len(selected) < profile.MinExtractors {
		return nil, fmt.Errorf("%w: mode %s needs %d extractors, %d registered",
			domain.ErrInvalidMode, mode, profile.MinExtractors, len(selected))
	}
	return selected, nil
}
