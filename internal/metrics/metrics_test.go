package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics_IsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveExtraction("x", time.Second, false)
		m.ObserveStem("vocals", true)
		m.ObserveInsufficientEvidence()
		m.ObserveClassifierSkipped()
		m.ObserveFinding("outlier")
		m.ObserveAttempt("openai", "critic", false, time.Second)
		m.ObserveDegraded("reporter")
		m.ObserveVerdict("unit", "likely_ai")
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveExtraction("tempo_stability", 10*time.Millisecond, false)
	m.ObserveExtraction("tempo_stability", 10*time.Millisecond, true)
	m.ObserveAttempt("openai", "critic", false, time.Millisecond)
	m.ObserveAttempt("openai", "critic", false, time.Millisecond)
	m.ObserveDegraded("critic")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("tempo_stability")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("openai", "critic", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RolesDegraded.WithLabelValues("critic")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ObserveClassifierSkipped()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ClassifierSkipped))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ClassifierSkipped))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveVerdict("unit", "likely_ai")

	path := filepath.Join(t.TempDir(), "musictruth.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `musictruth_verdicts_total{kind="unit",label="likely_ai"} 1`)
}
