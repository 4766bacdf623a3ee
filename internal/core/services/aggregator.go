package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

// Aggregator merges extractor results into one evidence vector and
// enforces the mode's completeness floor.
type Aggregator struct {
	profiles map[domain.AnalysisMode]domain.ModeProfile
	relax    bool
	metrics  *metrics.Metrics
}

// NewAggregator creates an aggregator. A nil profile map uses the defaults.
// When relax is set, a unit failing its mode's floor is retried against
// the quick floor.
func NewAggregator(profiles map[domain.AnalysisMode]domain.ModeProfile, relax bool, m *metrics.Metrics) *Aggregator {
	if profiles == nil {
		profiles = domain.DefaultModeProfiles()
	}
	return &Aggregator{
		profiles: profiles,
		relax:    relax,
		metrics:  m,
	}
}

// Aggregate builds the evidence vector for a unit. Results must be in the
// same order as selected. On ErrInsufficientEvidence the partial vector is
// still returned for diagnostics.
func (a *Aggregator) Aggregate(
	unitID string,
	mode domain.AnalysisMode,
	selected []driven.SelectedExtractor,
	results []domain.FeatureResult,
) (domain.EvidenceVector, error) {
	ev := domain.EvidenceVector{
		UnitID:          unitID,
		Values:          make(map[string]float64),
		Provenance:      make(map[string]string),
		Order:           make(map[string]int),
		ExpectedMetrics: ExpectedMetrics(selected),
	}

	profile, ok := a.profiles[mode]
	if !ok {
		return ev, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	if len(results) != len(selected) {
		return ev, fmt.Errorf("%w: %d results for %d extractors", domain.ErrInvalidInput, len(results), len(selected))
	}

	type indexed struct {
		order  int
		result domain.FeatureResult
	}
	merged := make([]indexed, len(results))
	for i, res := range results {
		merged[i] = indexed{order: selected[i].Index, result: res}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].order < merged[j].order })

	for _, m := range merged {
		res := m.result
		if !res.Valid {
			for _, note := range res.Notes {
				ev.Notes = append(ev.Notes, res.Extractor+": "+note)
			}
			continue
		}
		ev.ValidExtractors++

		names := make([]string, 0, len(res.Metrics))
		for name := range res.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if prev, dup := ev.Provenance[name]; dup {
				ev.Notes = append(ev.Notes, fmt.Sprintf(
					"configuration defect: metric %s emitted by %s and %s, keeping %s",
					name, prev, res.Extractor, res.Extractor))
			}
			ev.Values[name] = res.Metrics[name]
			ev.Provenance[name] = res.Extractor
			ev.Order[name] = m.order
		}
	}

	if ev.ExpectedMetrics > 0 {
		ev.Completeness = float64(len(ev.Values)) / float64(ev.ExpectedMetrics)
		if ev.Completeness > 1 {
			ev.Completeness = 1
		}
	}

	if meets(ev, profile) {
		return ev, nil
	}

	if a.relax && mode != domain.ModeQuick {
		if quick, ok := a.profiles[domain.ModeQuick]; ok && meets(ev, quick) {
			ev.Notes = append(ev.Notes, fmt.Sprintf("%s, relaxed to quick floor %.2f",
				shortfall(ev, mode, profile), quick.CompletenessFloor))
			return ev, nil
		}
	}

	a.metrics.ObserveInsufficientEvidence()
	return ev, fmt.Errorf("%w: %s", domain.ErrInsufficientEvidence, shortfall(ev, mode, profile))
}

// meets reports whether the vector satisfies both of the profile's floors.
func meets(ev domain.EvidenceVector, p domain.ModeProfile) bool {
	return ev.Completeness >= p.CompletenessFloor && ev.ValidExtractors >= p.MinValid
}

func shortfall(ev domain.EvidenceVector, mode domain.AnalysisMode, p domain.ModeProfile) string {
	if ev.Completeness < p.CompletenessFloor {
		return fmt.Sprintf("completeness %.2f below %s floor %.2f", ev.Completeness, mode, p.CompletenessFloor)
	}
	return fmt.Sprintf("%d valid extractors, %s needs %d", ev.ValidExtractors, mode, p.MinValid)
}
