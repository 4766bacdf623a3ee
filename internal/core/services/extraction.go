package services

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

// ExtractionService runs selected extractors against one audio unit.
type ExtractionService struct {
	separator driven.StemSeparator
	metrics   *metrics.Metrics
	workers   int
}

// NewExtractionService creates an extraction service.
// The separator and metrics are optional. Workers <= 0 uses one per CPU.
func NewExtractionService(separator driven.StemSeparator, m *metrics.Metrics, workers int) *ExtractionService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ExtractionService{
		separator: separator,
		metrics:   m,
		workers:   workers,
	}
}

// ExpectedMetrics counts the metrics a selection declares.
func ExpectedMetrics(selected []driven.SelectedExtractor) int {
	n := 0
	for _, sel := range selected {
		n += len(sel.Extractor.Metrics())
	}
	return n
}

// Extract runs every selected extractor and returns one result per
// extractor in selection order. Individual failures become invalid results;
// the only error is a context cancelled before extraction starts.
func (s *ExtractionService) Extract(
	ctx context.Context,
	unit domain.AudioUnit,
	selected []driven.SelectedExtractor,
) ([]domain.FeatureResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stems := s.newStemCache(unit, selected)
	results := make([]domain.FeatureResult, len(selected))

	// Extraction is not cancellable once started, so the group context is unused.
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, sel := range selected {
		g.Go(func() error {
			results[i] = s.extractOne(ctx, unit, sel, stems)
			return nil
		})
	}
	_ = g.Wait()

	// Stems are read into memory, so the separator's copies can go.
	if s.separator != nil && len(stems.entries) > 0 {
		s.separator.Forget(unit.ID)
	}
	return results, nil
}

func (s *ExtractionService) extractOne(
	ctx context.Context,
	unit domain.AudioUnit,
	sel driven.SelectedExtractor,
	stems *stemCache,
) domain.FeatureResult {
	e := sel.Extractor
	name := e.Name()
	req := e.Requirements()
	log := logger.Named("extraction")

	if unit.Duration < req.MinDuration {
		return domain.InvalidResult(name, fmt.Sprintf("clip is %s, needs at least %s",
			unit.Duration.Round(time.Millisecond), req.MinDuration))
	}
	if req.Channels > 0 && unit.Channels != req.Channels {
		return domain.InvalidResult(name, fmt.Sprintf("needs %d channels, unit has %d", req.Channels, unit.Channels))
	}

	target := unit
	if req.NeedsSeparation() {
		buf, err := stems.get(ctx, req.Stem)
		if err != nil {
			log.Debug().Str("extractor", name).Str("stem", req.Stem.String()).Err(err).Msg("stem unavailable")
			return domain.InvalidResult(name, fmt.Sprintf("stem %s unavailable: %v", req.Stem, err))
		}
		target = unit.WithStem(req.Stem, buf)
	}

	start := time.Now()
	res := s.analyze(e, target, sel.Config)
	d := time.Since(start)
	s.metrics.ObserveExtraction(name, d, res.Valid)

	log.Debug().
		Str("unit", unit.ID).
		Str("extractor", name).
		Bool("valid", res.Valid).
		Dur("took", d).
		Msg("extracted")
	return res
}

// analyze runs the extractor and normalises its result. Panics become
// invalid results, and undeclared or non-finite metrics are dropped.
func (s *ExtractionService) analyze(
	e driven.FeatureExtractor,
	unit domain.AudioUnit,
	cfg domain.ExtractorConfig,
) (res domain.FeatureResult) {
	name := e.Name()
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extractor %s panicked: %v", name, r)
			res = domain.InvalidResult(name, fmt.Sprintf("panic: %v", r))
		}
	}()

	raw := e.Analyze(unit, cfg)
	if !raw.Valid {
		raw.Extractor = name
		if raw.Metrics == nil {
			raw.Metrics = map[string]float64{}
		}
		return raw
	}

	declared := make(map[string]bool)
	for _, spec := range e.Metrics() {
		declared[spec.Name] = true
	}
	metrics := make(map[string]float64, len(raw.Metrics))
	notes := append([]string(nil), raw.Notes...)
	undeclared := make([]string, 0)
	for metric, v := range raw.Metrics {
		if !declared[metric] {
			undeclared = append(undeclared, metric)
			continue
		}
		metrics[metric] = v
	}
	sort.Strings(undeclared)
	for _, metric := range undeclared {
		notes = append(notes, "configuration defect: undeclared metric "+metric)
	}
	return domain.NewFeatureResult(name, metrics, notes...)
}

// stemCache resolves each separated stem at most once per unit.
type stemCache struct {
	separator driven.StemSeparator
	metrics   *metrics.Metrics
	unit      domain.AudioUnit
	entries   map[domain.Stem]*stemEntry
}

type stemEntry struct {
	once sync.Once
	buf  *domain.AudioBuffer
	err  error
}

// newStemCache prepares entries for the stems the selection needs. The map
// is fixed before extractors start, so lookups need no lock.
func (s *ExtractionService) newStemCache(unit domain.AudioUnit, selected []driven.SelectedExtractor) *stemCache {
	c := &stemCache{
		separator: s.separator,
		metrics:   s.metrics,
		unit:      unit,
		entries:   make(map[domain.Stem]*stemEntry),
	}
	for _, sel := range selected {
		if req := sel.Extractor.Requirements(); req.NeedsSeparation() {
			c.entries[req.Stem] = &stemEntry{}
		}
	}
	return c
}

func (c *stemCache) get(ctx context.Context, stem domain.Stem) (*domain.AudioBuffer, error) {
	entry, ok := c.entries[stem]
	if !ok {
		return nil, fmt.Errorf("%w: stem %s was not requested", domain.ErrSeparationUnavailable, stem)
	}
	entry.once.Do(func() {
		if c.separator == nil {
			entry.err = fmt.Errorf("%w: no separator configured", domain.ErrSeparationUnavailable)
		} else {
			entry.buf, entry.err = c.separator.Separate(ctx, c.unit, stem)
			if entry.err == nil && entry.buf == nil {
				entry.err = fmt.Errorf("%w: separator returned no audio", domain.ErrSeparationUnavailable)
			}
		}
		c.metrics.ObserveStem(stem.String(), entry.err == nil)
	})
	return entry.buf, entry.err
}
