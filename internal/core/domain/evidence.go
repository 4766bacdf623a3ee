package domain

import "sort"

// EvidenceVector is the merged set of metrics for one AudioUnit.
type EvidenceVector struct {
	UnitID  string             `json:"unit_id"`
	GroupID string             `json:"group_id,omitempty"`
	Values  map[string]float64 `json:"values"`

	// Provenance maps each metric to the extractor that produced it.
	Provenance map[string]string `json:"provenance"`

	// Order maps each metric to its extractor's registration index.
	Order map[string]int `json:"-"`

	Completeness    float64  `json:"completeness"`
	ValidExtractors int      `json:"valid_extractors"`
	ExpectedMetrics int      `json:"expected_metrics"`
	Notes           []string `json:"notes,omitempty"`
}

// Value returns the named metric and whether it is present.
func (e EvidenceVector) Value(name string) (float64, bool) {
	v, ok := e.Values[name]
	return v, ok
}

// OrderOf returns the registration index of the extractor that produced
// the metric. Unknown metrics sort last.
func (e EvidenceVector) OrderOf(name string) int {
	if idx, ok := e.Order[name]; ok {
		return idx
	}
	return int(^uint(0) >> 1)
}

// MetricNames returns the present metric names in sorted order.
func (e EvidenceVector) MetricNames() []string {
	names := make([]string, 0, len(e.Values))
	for name := range e.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EvidenceGroup is a set of vectors sharing a group identifier.
type EvidenceGroup struct {
	ID      string
	Members []EvidenceVector

	// Expected is the number of units submitted for the group.
	// It exceeds len(Members) when some members failed or timed out.
	Expected int
}

// Partial returns true if fewer members arrived than were submitted.
func (g EvidenceGroup) Partial() bool {
	return g.Expected > len(g.Members)
}
