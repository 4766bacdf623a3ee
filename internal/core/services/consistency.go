package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

const (
	// minSpread keeps the deviation test finite for identical values.
	minSpread = 1e-9

	// relativeSpread floors the spread at a fraction of the median, so
	// drift that is small against the metric's own magnitude never counts.
	relativeSpread = 0.01
)

// hybridMinMetrics is how many discriminating metrics a member must
// deviate on to join the hybrid-suspect cluster.
const hybridMinMetrics = 2

// ConsistencyAnalyzer cross-checks members of one release.
type ConsistencyAnalyzer struct {
	tolerance     float64
	pairTolerance float64
	specs         map[string]domain.MetricSpec
	metrics       *metrics.Metrics
}

// NewConsistencyAnalyzer creates a consistency analyzer.
// Specs classify metrics as codec-sensitive or discriminating; unknown
// metrics are treated as neither.
func NewConsistencyAnalyzer(tolerance, pairTolerance float64, specs map[string]domain.MetricSpec, m *metrics.Metrics) *ConsistencyAnalyzer {
	if tolerance <= 0 {
		tolerance = domain.DefaultConsistencyTolerance
	}
	if pairTolerance <= 0 {
		pairTolerance = domain.DefaultPairTolerance
	}
	return &ConsistencyAnalyzer{
		tolerance:     tolerance,
		pairTolerance: pairTolerance,
		specs:         specs,
		metrics:       m,
	}
}

// Analyze returns the group's findings sorted by member order, then metric.
func (c *ConsistencyAnalyzer) Analyze(group domain.EvidenceGroup) []domain.ConsistencyFinding {
	findings := []domain.ConsistencyFinding{}
	switch n := len(group.Members); {
	case n < 2:
		return findings
	case n == 2:
		findings = c.comparePair(group)
	default:
		findings = c.compareRobust(group)
		c.markHybrids(findings, n)
	}

	order := make(map[string]int, len(group.Members))
	for i, m := range group.Members {
		order[m.UnitID] = i
	}
	partial := group.Partial()
	for i := range findings {
		findings[i].LowConfidence = partial
	}
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if order[a.MemberID] != order[b.MemberID] {
			return order[a.MemberID] < order[b.MemberID]
		}
		return a.Metric < b.Metric
	})

	for _, f := range findings {
		c.metrics.ObserveFinding(f.Class.String())
	}
	return findings
}

// compareRobust flags members far from the median in MAD units, for every
// metric at least three members report.
func (c *ConsistencyAnalyzer) compareRobust(group domain.EvidenceGroup) []domain.ConsistencyFinding {
	var findings []domain.ConsistencyFinding
	for _, metric := range sharedMetrics(group.Members, 3) {
		var values []float64
		for _, m := range group.Members {
			if v, ok := m.Value(metric); ok {
				values = append(values, v)
			}
		}

		med := median(values)
		spread := c.spread(metric, values, med)

		for _, m := range group.Members {
			v, ok := m.Value(metric)
			if !ok {
				continue
			}
			dev := math.Abs(v-med) / spread
			if dev <= c.tolerance {
				continue
			}
			findings = append(findings, domain.ConsistencyFinding{
				GroupID:   group.ID,
				MemberID:  m.UnitID,
				Metric:    metric,
				Value:     v,
				Baseline:  med,
				Class:     c.classify(metric),
				Deviation: dev,
			})
		}
	}
	return findings
}

// spread returns the robust scale of values around med. The MAD is used
// as is; when half or more members share one value the MAD is zero and the
// mean absolute deviation stands in. The result never drops below the
// metric's declared resolution or a small fraction of the median.
func (c *ConsistencyAnalyzer) spread(metric string, values []float64, med float64) float64 {
	abs := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		abs[i] = math.Abs(v - med)
		sum += abs[i]
	}
	s := median(abs)
	if s == 0 {
		s = sum / float64(len(values))
	}
	floor := math.Max(relativeSpread*math.Abs(med), c.specs[metric].Resolution)
	return math.Max(s, math.Max(floor, minSpread))
}

// comparePair compares the second member against the first on relative
// difference.
func (c *ConsistencyAnalyzer) comparePair(group domain.EvidenceGroup) []domain.ConsistencyFinding {
	var findings []domain.ConsistencyFinding
	ref, variant := group.Members[0], group.Members[1]
	for _, metric := range sharedMetrics(group.Members, 2) {
		a, _ := ref.Value(metric)
		b, _ := variant.Value(metric)
		rel := math.Abs(a-b) / math.Max(math.Max(math.Abs(a), math.Abs(b)), 1e-12)
		if rel <= c.pairTolerance {
			continue
		}
		findings = append(findings, domain.ConsistencyFinding{
			GroupID:   group.ID,
			MemberID:  variant.UnitID,
			Metric:    metric,
			Value:     b,
			Baseline:  a,
			Class:     c.classify(metric),
			Deviation: rel,
		})
	}
	return findings
}

// markHybrids reclassifies the discriminating findings of a minority
// cluster deviating on several discriminating metrics at once.
func (c *ConsistencyAnalyzer) markHybrids(findings []domain.ConsistencyFinding, n int) {
	counts := make(map[string]int)
	for _, f := range findings {
		if c.specs[f.Metric].Discriminating {
			counts[f.MemberID]++
		}
	}
	cluster := make(map[string]bool)
	for member, k := range counts {
		if k >= hybridMinMetrics {
			cluster[member] = true
		}
	}
	if len(cluster) == 0 || 2*len(cluster) >= n {
		return
	}
	for i, f := range findings {
		if cluster[f.MemberID] && c.specs[f.Metric].Discriminating {
			findings[i].Class = domain.FindingHybridSuspect
		}
	}
}

func (c *ConsistencyAnalyzer) classify(metric string) domain.FindingClass {
	if c.specs[metric].CodecSensitive {
		return domain.FindingOutlier
	}
	return domain.FindingDifferentSource
}

// sharedMetrics returns, sorted, the metrics reported by at least the given number of members.
func sharedMetrics(members []domain.EvidenceVector, least int) []string {
	counts := make(map[string]int)
	for _, m := range members {
		for name := range m.Values {
			counts[name]++
		}
	}
	var names []string
	for name, k := range counts {
		if k >= least {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
