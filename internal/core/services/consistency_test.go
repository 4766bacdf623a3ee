package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

const (
	codecMetric = "spectral.cutoff_hz"
	discMetricA = "tempo.interval_cv"
	discMetricB = "vocal.pitch_deviation"
	plainMetric = "silence.ratio"
)

func testSpecs() map[string]domain.MetricSpec {
	return map[string]domain.MetricSpec{
		codecMetric: {Name: codecMetric, CodecSensitive: true},
		discMetricA: {Name: discMetricA, Discriminating: true},
		discMetricB: {Name: discMetricB, Discriminating: true},
		plainMetric: {Name: plainMetric},
	}
}

func group(values ...map[string]float64) domain.EvidenceGroup {
	g := domain.EvidenceGroup{ID: "album", Expected: len(values)}
	for i, v := range values {
		g.Members = append(g.Members, domain.EvidenceVector{UnitID: fmt.Sprintf("t%d", i+1), Values: v})
	}
	return g
}

func column(metric string, values ...float64) []map[string]float64 {
	out := make([]map[string]float64, len(values))
	for i, v := range values {
		out[i] = map[string]float64{metric: v}
	}
	return out
}

func newTestAnalyzer() *ConsistencyAnalyzer {
	return NewConsistencyAnalyzer(2, 0.15, testSpecs(), nil)
}

func TestAnalyze_SingletonHasNoFindings(t *testing.T) {
	findings := newTestAnalyzer().Analyze(group(map[string]float64{codecMetric: 1}))
	assert.NotNil(t, findings)
	assert.Empty(t, findings)
}

func TestAnalyze_IdenticalMembers(t *testing.T) {
	findings := newTestAnalyzer().Analyze(group(column(codecMetric, 5, 5, 5, 5)...))
	assert.Empty(t, findings)
}

func TestAnalyze_SingleOutlier(t *testing.T) {
	findings := newTestAnalyzer().Analyze(group(column(codecMetric, 10, 11, 12, 13, 24)...))
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "album", f.GroupID)
	assert.Equal(t, "t5", f.MemberID)
	assert.Equal(t, codecMetric, f.Metric)
	assert.Equal(t, 24.0, f.Value)
	assert.Equal(t, 12.0, f.Baseline)
	assert.InDelta(t, 12.0, f.Deviation, 1e-9)
	assert.Equal(t, domain.FindingOutlier, f.Class)
	assert.False(t, f.LowConfidence)
}

func TestAnalyze_ClassByMetric(t *testing.T) {
	findings := newTestAnalyzer().Analyze(group(column(plainMetric, 10, 11, 12, 13, 24)...))
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingDifferentSource, findings[0].Class)
}

func TestAnalyze_SkipsMetricsFewMembersReport(t *testing.T) {
	values := column(codecMetric, 10, 11, 12, 13, 24)
	values[0][plainMetric] = 1
	values[1][plainMetric] = 100
	findings := newTestAnalyzer().Analyze(group(values...))
	for _, f := range findings {
		assert.NotEqual(t, plainMetric, f.Metric)
	}
}

func TestAnalyze_Pair(t *testing.T) {
	tests := []struct {
		name  string
		a, b  float64
		found bool
	}{
		{"within tolerance", 100, 110, false},
		{"beyond tolerance", 100, 130, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := newTestAnalyzer().Analyze(group(column(codecMetric, tt.a, tt.b)...))
			if !tt.found {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, "t2", findings[0].MemberID)
			assert.Equal(t, tt.a, findings[0].Baseline)
			assert.InDelta(t, 30.0/130.0, findings[0].Deviation, 1e-9)
		})
	}
}

func TestAnalyze_HybridSuspect(t *testing.T) {
	values := []map[string]float64{
		{discMetricA: 0.05, discMetricB: 0.20, codecMetric: 19000},
		{discMetricA: 0.06, discMetricB: 0.22, codecMetric: 19100},
		{discMetricA: 0.05, discMetricB: 0.21, codecMetric: 19050},
		{discMetricA: 0.06, discMetricB: 0.19, codecMetric: 18950},
		{discMetricA: 0.001, discMetricB: 0.01, codecMetric: 19000},
	}
	findings := newTestAnalyzer().Analyze(group(values...))
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, "t5", f.MemberID)
		assert.Equal(t, domain.FindingHybridSuspect, f.Class)
	}
	assert.Equal(t, discMetricA, findings[0].Metric)
	assert.Equal(t, discMetricB, findings[1].Metric)
}

func TestAnalyze_NoHybridOnEvenSplit(t *testing.T) {
	values := []map[string]float64{
		{discMetricA: 0.05, discMetricB: 0.20},
		{discMetricA: 0.05, discMetricB: 0.20},
		{discMetricA: 0.05, discMetricB: 0.20},
		{discMetricA: 0.001, discMetricB: 0.01},
		{discMetricA: 0.001, discMetricB: 0.01},
		{discMetricA: 0.001, discMetricB: 0.01},
	}
	for _, f := range newTestAnalyzer().Analyze(group(values...)) {
		assert.NotEqual(t, domain.FindingHybridSuspect, f.Class)
	}
}

func TestAnalyze_TwoOfFiveDeviatingIsHybrid(t *testing.T) {
	values := []map[string]float64{
		{discMetricA: 0.05, discMetricB: 0.20},
		{discMetricA: 0.05, discMetricB: 0.20},
		{discMetricA: 0.05, discMetricB: 0.20},
		{discMetricA: 0.001, discMetricB: 0.01},
		{discMetricA: 0.001, discMetricB: 0.01},
	}
	findings := newTestAnalyzer().Analyze(group(values...))
	require.Len(t, findings, 4)
	for _, f := range findings {
		assert.Contains(t, []string{"t4", "t5"}, f.MemberID)
		assert.Equal(t, domain.FindingHybridSuspect, f.Class)
	}
}

func TestAnalyze_SharedMajorityValue(t *testing.T) {
	t.Run("small drift is not flagged", func(t *testing.T) {
		findings := newTestAnalyzer().Analyze(group(column(plainMetric, 120, 120, 120, 120.5, 119.5)...))
		assert.Empty(t, findings)
	})

	t.Run("large jump is flagged once", func(t *testing.T) {
		findings := newTestAnalyzer().Analyze(group(column(plainMetric, 5, 5, 5, 5, 50)...))
		require.Len(t, findings, 1)
		assert.Equal(t, "t5", findings[0].MemberID)
		// Mean absolute deviation is 45/5 = 9.
		assert.InDelta(t, 5.0, findings[0].Deviation, 1e-9)
		assert.Equal(t, domain.FindingDifferentSource, findings[0].Class)
	})

	t.Run("zero median respects resolution", func(t *testing.T) {
		specs := testSpecs()
		specs[plainMetric] = domain.MetricSpec{Name: plainMetric, Resolution: 0.01}
		a := NewConsistencyAnalyzer(2, 0.15, specs, nil)

		assert.Empty(t, a.Analyze(group(column(plainMetric, 0, 0, 0, 0, 0.005)...)))

		findings := a.Analyze(group(column(plainMetric, 0, 0, 0, 0, 0.3)...))
		require.Len(t, findings, 1)
		assert.Equal(t, "t5", findings[0].MemberID)
	})
}

func TestAnalyze_PartialGroupIsLowConfidence(t *testing.T) {
	g := group(column(codecMetric, 10, 11, 12, 13, 24)...)
	g.Expected = 7
	findings := newTestAnalyzer().Analyze(g)
	require.NotEmpty(t, findings)
	for _, f := range findings {
		assert.True(t, f.LowConfidence)
	}
}

func TestAnalyze_SortedByMemberThenMetric(t *testing.T) {
	values := []map[string]float64{
		{codecMetric: 100, plainMetric: 1},
		{codecMetric: 10, plainMetric: 11},
		{codecMetric: 11, plainMetric: 12},
		{codecMetric: 12, plainMetric: 13},
		{codecMetric: 13, plainMetric: 100},
	}
	findings := newTestAnalyzer().Analyze(group(values...))
	var got []string
	for _, f := range findings {
		got = append(got, f.MemberID+"/"+f.Metric)
	}
	assert.Equal(t, []string{
		"t1/" + codecMetric,
		"t1/" + plainMetric,
		"t5/" + plainMetric,
	}, got)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}
