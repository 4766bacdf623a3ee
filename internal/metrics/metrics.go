// Package metrics exposes Prometheus collectors for the analysis pipeline.
// The CLI is short-lived, so collectors live on a private registry that can
// be written to a node-exporter textfile at exit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for MusicTruth.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Extraction metrics
	ExtractionDuration *prometheus.HistogramVec
	ExtractionFailures *prometheus.CounterVec
	StemRequests       *prometheus.CounterVec

	// Scoring metrics
	InsufficientEvidence prometheus.Counter
	ClassifierSkipped    prometheus.Counter
	ConsistencyFindings  *prometheus.CounterVec

	// Agent metrics
	ProviderAttempts *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	RolesDegraded    *prometheus.CounterVec

	// Verdict metrics
	Verdicts *prometheus.CounterVec
}

// New creates all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ExtractionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "musictruth_extraction_duration_seconds",
			Help:    "Time spent in each feature extractor",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"extractor"}),
		ExtractionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "musictruth_extraction_failures_total",
			Help: "Extractor runs that produced an invalid result",
		}, []string{"extractor"}),
		StemRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "musictruth_stem_requests_total",
			Help: "Source separation requests by stem and outcome",
		}, []string{"stem", "outcome"}),

		InsufficientEvidence: f.NewCounter(prometheus.CounterOpts{
			Name: "musictruth_insufficient_evidence_total",
			Help: "Units rejected below the completeness floor",
		}),
		ClassifierSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "musictruth_classifier_skipped_total",
			Help: "Ensemble runs without the classifier source",
		}),
		ConsistencyFindings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "musictruth_consistency_findings_total",
			Help: "Consistency findings by class",
		}, []string{"class"}),

		ProviderAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "musictruth_provider_attempts_total",
			Help: "Language model calls by provider, role and outcome",
		}, []string{"provider", "role", "outcome"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "musictruth_provider_latency_seconds",
			Help:    "Language model call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		RolesDegraded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "musictruth_roles_degraded_total",
			Help: "Agent roles that fell back to templates",
		}, []string{"role"}),

		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "musictruth_verdicts_total",
			Help: "Verdicts produced by kind and label",
		}, []string{"kind", "label"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveExtraction records one extractor run.
func (m *Metrics) ObserveExtraction(extractor string, d time.Duration, valid bool) {
	if m == nil {
		return
	}
	m.ExtractionDuration.WithLabelValues(extractor).Observe(d.Seconds())
	if !valid {
		m.ExtractionFailures.WithLabelValues(extractor).Inc()
	}
}

// ObserveStem records one separation request.
func (m *Metrics) ObserveStem(stem string, ok bool) {
	if m == nil {
		return
	}
	m.StemRequests.WithLabelValues(stem, outcome(ok)).Inc()
}

// ObserveInsufficientEvidence records a rejected unit.
func (m *Metrics) ObserveInsufficientEvidence() {
	if m == nil {
		return
	}
	m.InsufficientEvidence.Inc()
}

// ObserveClassifierSkipped records an ensemble run without the classifier.
func (m *Metrics) ObserveClassifierSkipped() {
	if m == nil {
		return
	}
	m.ClassifierSkipped.Inc()
}

// ObserveFinding records one consistency finding.
func (m *Metrics) ObserveFinding(class string) {
	if m == nil {
		return
	}
	m.ConsistencyFindings.WithLabelValues(class).Inc()
}

// ObserveAttempt records one provider call.
func (m *Metrics) ObserveAttempt(provider, role string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderAttempts.WithLabelValues(provider, role, outcome(ok)).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveDegraded records a role falling back to a template.
func (m *Metrics) ObserveDegraded(role string) {
	if m == nil {
		return
	}
	m.RolesDegraded.WithLabelValues(role).Inc()
}

// ObserveVerdict records a produced verdict.
func (m *Metrics) ObserveVerdict(kind, label string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(kind, label).Inc()
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
