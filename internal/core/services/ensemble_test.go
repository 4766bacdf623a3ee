package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func evidence(values map[string]float64, order map[string]int) domain.EvidenceVector {
	return domain.EvidenceVector{UnitID: "u", Values: values, Order: order}
}

func TestScore_CutoffAndTempoStability(t *testing.T) {
	ev := evidence(
		map[string]float64{domain.MetricCutoffHz: 15000, domain.MetricTempoCV: 0.08},
		map[string]int{domain.MetricCutoffHz: 0, domain.MetricTempoCV: 1},
	)

	score, err := NewEnsemble(domain.DefaultThresholdTable(), nil, 0, nil).Score(context.Background(), ev)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, score.Value, 1e-9)
	assert.Equal(t, domain.LabelUncertain, score.Label)
	require.Len(t, score.Reasons, 2)
	assert.Equal(t, domain.RuleSpectralCutoff, score.Reasons[0].ID)
	assert.Equal(t, domain.DirectionAI, score.Reasons[0].Direction)
	assert.Equal(t, domain.RuleTempoStability, score.Reasons[1].ID)
	assert.Equal(t, domain.DirectionHuman, score.Reasons[1].Direction)
	assert.False(t, score.ClassifierUsed)
	assert.Contains(t, score.Notes, "classifier not configured")
}

func TestScore_NoReasonsIsNeutral(t *testing.T) {
	ev := evidence(map[string]float64{domain.MetricCutoffHz: 20000}, nil)
	score, err := NewEnsemble(domain.DefaultThresholdTable(), nil, 0, nil).Score(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, domain.NeutralScore, score.Value)
	assert.Empty(t, score.Reasons)
	assert.Equal(t, domain.LabelUncertain, score.Label)
}

func TestScore_OrderingIsDeterministic(t *testing.T) {
	table := domain.ThresholdTable{Rules: []domain.ThresholdRule{
		{ID: "late", Metric: "m.late", Op: domain.CompareAbove, Threshold: 0, Direction: domain.DirectionAI, Weight: 0.3},
		{ID: "early", Metric: "m.early", Op: domain.CompareAbove, Threshold: 0, Direction: domain.DirectionHuman, Weight: 0.3},
		{ID: "heavy", Metric: "m.late", Op: domain.CompareAbove, Threshold: 0, Direction: domain.DirectionAI, Weight: 0.9},
	}}
	ev := evidence(
		map[string]float64{"m.late": 1, "m.early": 1},
		map[string]int{"m.early": 0, "m.late": 4},
	)
	ens := NewEnsemble(table, nil, 0, nil)

	first, err := ens.Score(context.Background(), ev)
	require.NoError(t, err)
	ids := make([]string, len(first.Reasons))
	for i, r := range first.Reasons {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"heavy", "early", "late"}, ids)

	for i := 0; i < 20; i++ {
		again, err := ens.Score(context.Background(), ev)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("score changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestScore_Fingerprints(t *testing.T) {
	ev := evidence(map[string]float64{
		domain.MetricSunoHFRatio:   0.2,
		domain.MetricUdioChirpRate: 0.01,
	}, nil)
	score, err := NewEnsemble(domain.DefaultThresholdTable(), nil, 0, nil).Score(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.FingerprintSuno}, score.Fingerprints)
	require.Len(t, score.Reasons, 1)
	assert.Equal(t, domain.SourceFingerprint, score.Reasons[0].Source)
	assert.Equal(t, 1.0, score.Value)
}

func TestScore_Classifier(t *testing.T) {
	ev := evidence(
		map[string]float64{domain.MetricCutoffHz: 15000, domain.MetricTempoCV: 0.08},
		map[string]int{domain.MetricCutoffHz: 0, domain.MetricTempoCV: 1},
	)
	table := domain.DefaultThresholdTable()
	const weight = 0.5

	without, err := NewEnsemble(table, nil, 0, nil).Score(context.Background(), ev)
	require.NoError(t, err)

	for _, p := range []float64{0, 0.2, 0.5, 0.9, 1} {
		with, err := NewEnsemble(table, &fakeClassifier{p: p}, weight, nil).Score(context.Background(), ev)
		require.NoError(t, err)
		assert.True(t, with.ClassifierUsed)
		assert.GreaterOrEqual(t, with.Value, 0.0)
		assert.LessOrEqual(t, with.Value, 1.0)

		// 0.9 is the heuristic weight mass for this vector.
		bound := weight / (0.9 + weight)
		assert.LessOrEqual(t, math.Abs(with.Value-without.Value), bound+1e-12, "p=%v", p)

		var reason domain.DetectionReason
		for _, r := range with.Reasons {
			if r.ID == "classifier" {
				reason = r
			}
		}
		want := domain.DirectionHuman
		if p >= 0.5 {
			want = domain.DirectionAI
		}
		assert.Equal(t, want, reason.Direction, "p=%v", p)
	}
}

func TestScore_ClassifierReasonFollowsEqualWeightRules(t *testing.T) {
	ev := evidence(map[string]float64{domain.MetricCutoffHz: 15000}, map[string]int{domain.MetricCutoffHz: 0})
	score, err := NewEnsemble(domain.DefaultThresholdTable(), &fakeClassifier{p: 0.1}, 0.6, nil).Score(context.Background(), ev)
	require.NoError(t, err)
	require.Len(t, score.Reasons, 2)
	assert.Equal(t, domain.RuleSpectralCutoff, score.Reasons[0].ID)
	assert.Equal(t, "classifier", score.Reasons[1].ID)
	assert.Equal(t, domain.SourceClassifier, score.Reasons[1].Source)
	assert.InDelta(t, (0.6+0.6*0.1)/1.2, score.Value, 1e-9)
}

func TestScore_ClassifierUnavailable(t *testing.T) {
	ev := evidence(map[string]float64{domain.MetricCutoffHz: 15000}, nil)
	c := &fakeClassifier{err: errors.New("model file missing")}
	score, err := NewEnsemble(domain.DefaultThresholdTable(), c, 0.5, nil).Score(context.Background(), ev)
	require.NoError(t, err)
	assert.False(t, score.ClassifierUsed)
	assert.Equal(t, 1.0, score.Value)
	require.NotEmpty(t, score.Notes)
	assert.Contains(t, score.Notes[0], domain.ErrClassifierUnavailable.Error())
}

func TestScore_WithTable(t *testing.T) {
	ev := evidence(map[string]float64{domain.MetricCutoffHz: 14000}, nil)
	base := NewEnsemble(domain.DefaultThresholdTable(), nil, 0, nil)
	lofi, err := domain.DefaultCalibration().TableFor("lofi")
	require.NoError(t, err)

	s1, err := base.Score(context.Background(), ev)
	require.NoError(t, err)
	s2, err := base.WithTable(lofi).Score(context.Background(), ev)
	require.NoError(t, err)

	assert.Len(t, s1.Reasons, 1)
	assert.Empty(t, s2.Reasons)
}

func TestScore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEnsemble(domain.DefaultThresholdTable(), nil, 0, nil).Score(ctx, evidence(nil, nil))
	assert.ErrorIs(t, err, context.Canceled)
}
