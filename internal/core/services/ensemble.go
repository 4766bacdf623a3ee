package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

// classifierOrder places the classifier reason after every extractor.
const classifierOrder = int(^uint(0) >> 1)

// classifierReasonID identifies the classifier's detection reason.
const classifierReasonID = "classifier"

// Ensemble combines threshold rules, provider fingerprints and the
// pretrained classifier into one confidence score.
type Ensemble struct {
	table      domain.ThresholdTable
	classifier driven.Classifier
	weight     float64
	metrics    *metrics.Metrics
}

// NewEnsemble creates an ensemble. The classifier is optional.
func NewEnsemble(table domain.ThresholdTable, classifier driven.Classifier, weight float64, m *metrics.Metrics) *Ensemble {
	return &Ensemble{
		table:      table,
		classifier: classifier,
		weight:     weight,
		metrics:    m,
	}
}

// WithTable returns a copy of the ensemble scoring against another table.
func (e *Ensemble) WithTable(table domain.ThresholdTable) *Ensemble {
	c := *e
	c.table = table
	return &c
}

// Score computes the weighted mean of every fired reason's vote.
// The only error is a cancelled context.
func (e *Ensemble) Score(ctx context.Context, ev domain.EvidenceVector) (domain.ConfidenceScore, error) {
	if err := ctx.Err(); err != nil {
		return domain.ConfidenceScore{}, err
	}

	type ranked struct {
		reason domain.DetectionReason
		rule   int
	}
	var fired []ranked
	var score domain.ConfidenceScore

	for i, rule := range e.table.Rules {
		v, ok := ev.Value(rule.Metric)
		if !ok || !rule.Fires(v) {
			continue
		}
		r := domain.NewDetectionReason(rule.ID, rule.Label, rule.Direction, rule.Weight, v)
		r.Metric = rule.Metric
		r.Source = rule.Source()
		r.Order = ev.OrderOf(rule.Metric)
		r.Fingerprint = rule.Fingerprint
		fired = append(fired, ranked{reason: r, rule: i})
	}

	if r, ok := e.classify(ctx, ev, &score); ok {
		fired = append(fired, ranked{reason: r, rule: len(e.table.Rules)})
	}

	sort.SliceStable(fired, func(i, j int) bool {
		a, b := fired[i], fired[j]
		if a.reason.Weight != b.reason.Weight {
			return a.reason.Weight > b.reason.Weight
		}
		if a.reason.Order != b.reason.Order {
			return a.reason.Order < b.reason.Order
		}
		return a.rule < b.rule
	})

	var num, den float64
	score.Reasons = make([]domain.DetectionReason, 0, len(fired))
	seen := make(map[string]bool)
	for _, f := range fired {
		r := f.reason
		score.Reasons = append(score.Reasons, r)
		num += r.Weight * r.Vote()
		den += r.Weight
		if r.Fingerprint != "" && !seen[r.Fingerprint] {
			seen[r.Fingerprint] = true
			score.Fingerprints = append(score.Fingerprints, r.Fingerprint)
		}
	}

	score.Value = domain.NeutralScore
	if den > 0 {
		score.Value = clampUnit(num / den)
	}
	score.Label = domain.LabelFor(score.Value)
	return score, nil
}

// classify runs the classifier when available and reports whether it
// produced a reason. Unavailability is noted on the score.
func (e *Ensemble) classify(ctx context.Context, ev domain.EvidenceVector, score *domain.ConfidenceScore) (domain.DetectionReason, bool) {
	if e.classifier == nil || e.weight <= 0 {
		score.Notes = append(score.Notes, "classifier not configured")
		e.metrics.ObserveClassifierSkipped()
		return domain.DetectionReason{}, false
	}

	p, err := e.classifier.Predict(ctx, ev)
	if err != nil {
		if !errors.Is(err, domain.ErrClassifierUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
		}
		logger.Named("ensemble").Debug().Str("unit", ev.UnitID).Err(err).Msg("classifier skipped")
		score.Notes = append(score.Notes, err.Error())
		e.metrics.ObserveClassifierSkipped()
		return domain.DetectionReason{}, false
	}

	p = clampUnit(p)
	dir := domain.DirectionHuman
	if p >= 0.5 {
		dir = domain.DirectionAI
	}
	r := domain.NewDetectionReason(classifierReasonID, "Pretrained classifier ("+e.classifier.Name()+")", dir, e.weight, p)
	r.Source = domain.SourceClassifier
	r.Order = classifierOrder
	score.ClassifierUsed = true
	return r, true
}

func clampUnit(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
