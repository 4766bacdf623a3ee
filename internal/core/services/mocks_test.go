package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// fakeExtractor emits fixed metrics, optionally after a delay.
type fakeExtractor struct {
	name    string
	specs   []domain.MetricSpec
	values  map[string]float64
	req     domain.Requirements
	delay   time.Duration
	slowID  string
	panics  bool
	invalid string
	calls   atomic.Int32
	gotStem atomic.Value
}

func newFakeExtractor(name string, values map[string]float64, specs ...domain.MetricSpec) *fakeExtractor {
	if len(specs) == 0 {
		for metric := range values {
			specs = append(specs, domain.MetricSpec{Name: metric})
		}
	}
	return &fakeExtractor{name: name, specs: specs, values: values}
}

func (f *fakeExtractor) Name() string                      { return f.name }
func (f *fakeExtractor) Requirements() domain.Requirements { return f.req }
func (f *fakeExtractor) Metrics() []domain.MetricSpec      { return f.specs }

func (f *fakeExtractor) Analyze(unit domain.AudioUnit, _ domain.ExtractorConfig) domain.FeatureResult {
	f.calls.Add(1)
	f.gotStem.Store(unit.Stem)
	if f.delay > 0 && (f.slowID == "" || f.slowID == unit.ID) {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	if f.invalid != "" {
		return domain.InvalidResult(f.name, f.invalid)
	}
	values := make(map[string]float64, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	return domain.FeatureResult{Extractor: f.name, Metrics: values, Valid: true}
}

// fakeRegistry selects every extractor it holds.
type fakeRegistry struct {
	extractors []driven.FeatureExtractor
}

func (r *fakeRegistry) Select(mode domain.AnalysisMode, profile domain.ModeProfile) ([]driven.SelectedExtractor, error) {
	if !mode.IsValid() {
		return nil, domain.ErrInvalidMode
	}
	want := make(map[string]bool)
	for _, n := range profile.Extractors {
		want[n] = true
	}
	var sel []driven.SelectedExtractor
	for i, e := range r.extractors {
		if want[e.Name()] {
			sel = append(sel, driven.SelectedExtractor{Extractor: e, Index: i})
		}
	}
	if len(sel) == 0 || len(sel) < profile.MinExtractors {
		return nil, domain.ErrInvalidMode
	}
	return sel, nil
}

func (r *fakeRegistry) Specs() map[string]domain.MetricSpec {
	specs := make(map[string]domain.MetricSpec)
	for _, e := range r.extractors {
		for _, s := range e.Metrics() {
			specs[s.Name] = s
		}
	}
	return specs
}

func (r *fakeRegistry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

func (r *fakeRegistry) All() []driven.FeatureExtractor { return r.extractors }

func selectAll(extractors ...driven.FeatureExtractor) []driven.SelectedExtractor {
	sel := make([]driven.SelectedExtractor, len(extractors))
	for i, e := range extractors {
		sel[i] = driven.SelectedExtractor{Extractor: e, Index: i}
	}
	return sel
}

// fakeSeparator counts calls per stem and records forgotten units.
type fakeSeparator struct {
	mu        sync.Mutex
	calls     map[domain.Stem]int
	forgotten []string
	err       error
}

func (s *fakeSeparator) Forget(unitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgotten = append(s.forgotten, unitID)
}

func (s *fakeSeparator) forgottenUnits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.forgotten...)
}

func (s *fakeSeparator) Separate(_ context.Context, unit domain.AudioUnit, stem domain.Stem) (*domain.AudioBuffer, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[domain.Stem]int)
	}
	s.calls[stem]++
	s.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	if s.err != nil {
		return nil, s.err
	}
	return unit.Buffer, nil
}

func (s *fakeSeparator) count(stem domain.Stem) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stem]
}

// fakeClassifier returns a fixed probability or error.
type fakeClassifier struct {
	p   float64
	err error
}

func (c *fakeClassifier) Predict(context.Context, domain.EvidenceVector) (float64, error) {
	return c.p, c.err
}

func (c *fakeClassifier) Name() string { return "fake" }

var _ driven.LLMService = (*fakeLLM)(nil)

// fakeLLM fails the first failures calls, then answers with reply.
type fakeLLM struct {
	model    string
	reply    string
	failures int
	mu       sync.Mutex
	calls    int
	inputs   []string
}

func (l *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.inputs = append(l.inputs, messages[len(messages)-1].Content)
	if l.failures < 0 || l.calls <= l.failures {
		return "", errors.New("upstream unavailable")
	}
	return l.reply, nil
}

func (l *fakeLLM) ModelName() string          { return l.model }
func (l *fakeLLM) Ping(context.Context) error { return nil }
func (l *fakeLLM) Close() error               { return nil }

func (l *fakeLLM) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeDecoder serves buffers by path.
type fakeDecoder struct {
	buffers map[string]*domain.AudioBuffer
}

func (d *fakeDecoder) Decode(_ context.Context, path string) (*domain.AudioBuffer, error) {
	buf, ok := d.buffers[path]
	if !ok {
		return nil, domain.ErrUnsupportedFormat
	}
	return buf, nil
}

// toneBuffer returns a mono 440 Hz buffer of the given length.
func toneBuffer(seconds float64, channels int) *domain.AudioBuffer {
	const sr = 8000
	n := int(seconds * sr)
	samples := make([]float32, n*channels)
	for i := 0; i < n; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return &domain.AudioBuffer{Samples: samples, SampleRate: sr, Channels: channels}
}

func testUnit(id string, seconds float64) domain.AudioUnit {
	return domain.NewAudioUnit(id, id+".wav", toneBuffer(seconds, 1))
}

// instantSleep records requested delays without waiting.
type instantSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *instantSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}
