package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisDeps holds the pipeline stages and collaborators.
// Orchestrator, Decoder and Store are optional.
type AnalysisDeps struct {
	Registry     driven.ExtractorRegistry
	Profiles     map[domain.AnalysisMode]domain.ModeProfile
	Extraction   *ExtractionService
	Aggregator   *Aggregator
	Ensemble     *Ensemble
	Calibration  domain.Calibration
	Consistency  *ConsistencyAnalyzer
	Orchestrator *Orchestrator
	Assembler    *VerdictAssembler
	Decoder      driven.AudioDecoder
	Store        driven.VerdictStore
}

// AnalysisService runs the analysis-and-verdict pipeline.
type AnalysisService struct {
	deps     AnalysisDeps
	settings domain.AnalysisSettings
}

// NewAnalysisService creates the pipeline service.
func NewAnalysisService(deps AnalysisDeps, settings domain.AnalysisSettings) *AnalysisService {
	if deps.Profiles == nil {
		deps.Profiles = domain.DefaultModeProfiles()
	}
	if settings.Workers <= 0 {
		settings.Workers = runtime.NumCPU()
	}
	if settings.Mode == "" {
		settings.Mode = domain.ModeStandard
	}
	return &AnalysisService{deps: deps, settings: settings}
}

// analysisRun is the resolved configuration of one analysis request.
type analysisRun struct {
	mode     domain.AnalysisMode
	genre    string
	selected []driven.SelectedExtractor
	ensemble *Ensemble
	req      driving.AnalysisRequest
}

func (s *AnalysisService) prepare(req driving.AnalysisRequest) (*analysisRun, error) {
	mode := req.Mode
	if mode == "" {
		mode = s.settings.Mode
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	genre := req.Genre
	if genre == "" {
		genre = s.settings.Genre
	}

	profile, ok := s.deps.Profiles[mode]
	if !ok {
		return nil, fmt.Errorf("%w: no profile for %s", domain.ErrInvalidMode, mode)
	}
	selected, err := s.deps.Registry.Select(mode, profile)
	if err != nil {
		return nil, err
	}
	table, err := s.deps.Calibration.TableFor(genre)
	if err != nil {
		return nil, err
	}

	return &analysisRun{
		mode:     mode,
		genre:    genre,
		selected: selected,
		ensemble: s.deps.Ensemble.WithTable(table),
		req:      req,
	}, nil
}

// AnalyzeUnit produces a verdict for one unit.
func (s *AnalysisService) AnalyzeUnit(ctx context.Context, unit domain.AudioUnit, req driving.AnalysisRequest) (*domain.Verdict, error) {
	r, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if unit.Metadata == (domain.Metadata{}) {
		unit = unit.WithMetadata(req.Metadata)
	}

	logger.Section("Analysis")
	logger.Info("Analysing %s in %s mode", unit.ID, r.mode)

	ev, score, err := s.scoreUnit(ctx, unit, r)
	if err != nil {
		return nil, err
	}

	agents := s.runAgents(ctx, r, Briefing{
		SubjectID: unit.ID,
		Kind:      domain.VerdictUnit,
		Mode:      r.mode,
		Genre:     r.genre,
		Metadata:  unit.Metadata,
		Score:     score,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := s.deps.Assembler.AssembleUnit(ev, score, agents, VerdictOptions{Mode: r.mode, Genre: r.genre})
	s.save(ctx, v)
	return &v, nil
}

// scoreUnit runs extraction, aggregation and the ensemble for one unit,
// checking for cancellation between stages.
func (s *AnalysisService) scoreUnit(ctx context.Context, unit domain.AudioUnit, r *analysisRun) (domain.EvidenceVector, domain.ConfidenceScore, error) {
	results, err := s.deps.Extraction.Extract(ctx, unit, r.selected)
	if err != nil {
		return domain.EvidenceVector{}, domain.ConfidenceScore{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.EvidenceVector{}, domain.ConfidenceScore{}, err
	}

	ev, err := s.deps.Aggregator.Aggregate(unit.ID, r.mode, r.selected, results)
	ev.GroupID = unit.GroupID
	if err != nil {
		return ev, domain.ConfidenceScore{}, err
	}
	if err := ctx.Err(); err != nil {
		return ev, domain.ConfidenceScore{}, err
	}

	score, err := r.ensemble.Score(ctx, ev)
	if err != nil {
		return ev, domain.ConfidenceScore{}, err
	}
	return ev, score, nil
}

func (s *AnalysisService) runAgents(ctx context.Context, r *analysisRun, b Briefing) domain.AgentRun {
	if r.req.SkipAgents || s.deps.Orchestrator == nil {
		return domain.AgentRun{Messages: []domain.AgentMessage{}}
	}
	if ctx.Err() != nil {
		return domain.AgentRun{Messages: []domain.AgentMessage{}}
	}
	logger.Section("Agents")
	return s.deps.Orchestrator.Run(ctx, b)
}

func (s *AnalysisService) save(ctx context.Context, v domain.Verdict) {
	if s.deps.Store == nil {
		return
	}
	if err := s.deps.Store.Save(ctx, v); err != nil {
		logger.Warn("failed to save verdict %s: %v", v.ID, err)
	}
}

// memberSource loads one group member on demand.
type memberSource struct {
	id   string
	load func(ctx context.Context) (domain.AudioUnit, error)
}

type memberResult struct {
	ev    domain.EvidenceVector
	score domain.ConfidenceScore
	err   error
}

// AnalyzeGroup produces a verdict for related units.
func (s *AnalysisService) AnalyzeGroup(
	ctx context.Context,
	groupID string,
	units []domain.AudioUnit,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	sources := make([]memberSource, len(units))
	for i, u := range units {
		unit := u.WithGroup(groupID)
		if unit.Metadata == (domain.Metadata{}) {
			unit = unit.WithMetadata(req.Metadata)
		}
		sources[i] = memberSource{
			id:   unit.ID,
			load: func(context.Context) (domain.AudioUnit, error) { return unit, nil },
		}
	}
	return s.analyzeGroup(ctx, groupID, sources, req)
}

// AnalyzeFile decodes a file and analyses it as one unit.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path string, req driving.AnalysisRequest) (*domain.Verdict, error) {
	unit, err := s.decode(ctx, path, req.Metadata)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeUnit(ctx, unit, req)
}

// AnalyzeFiles decodes each file inside the group's worker pool, so decode
// failures are recorded as skipped members.
func (s *AnalysisService) AnalyzeFiles(
	ctx context.Context,
	groupID string,
	paths []string,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	sources := make([]memberSource, len(paths))
	for i, path := range paths {
		sources[i] = memberSource{
			id: path,
			load: func(ctx context.Context) (domain.AudioUnit, error) {
				unit, err := s.decode(ctx, path, req.Metadata)
				if err != nil {
					return domain.AudioUnit{}, err
				}
				return unit.WithGroup(groupID), nil
			},
		}
	}
	return s.analyzeGroup(ctx, groupID, sources, req)
}

func (s *AnalysisService) decode(ctx context.Context, path string, md domain.Metadata) (domain.AudioUnit, error) {
	if s.deps.Decoder == nil {
		return domain.AudioUnit{}, errors.New("audio decoder not configured")
	}
	buf, err := s.deps.Decoder.Decode(ctx, path)
	if err != nil {
		return domain.AudioUnit{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return domain.NewAudioUnit(path, path, buf).WithMetadata(md), nil
}

//nolint:gocyclo // Barrier orchestration with necessary sequential steps
func (s *AnalysisService) analyzeGroup(
	ctx context.Context,
	groupID string,
	sources []memberSource,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: group %s has no members", domain.ErrInvalidInput, groupID)
	}
	r, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	logger.Section("Group analysis")
	logger.Info("Analysing %d members of %s in %s mode", len(sources), groupID, r.mode)

	// Members past the barrier deadline stop at their next stage boundary.
	memberCtx, cancelMembers := context.WithCancel(ctx)
	defer cancelMembers()

	var (
		mu      sync.Mutex
		closed  bool
		results = make([]*memberResult, len(sources))
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(s.settings.Workers)
		for i, src := range sources {
			g.Go(func() error {
				res := s.processMember(memberCtx, src, r)
				mu.Lock()
				if !closed {
					results[i] = &res
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	var timeout <-chan time.Time
	if s.settings.GroupTimeout > 0 {
		timer := time.NewTimer(s.settings.GroupTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	incomplete := false
	select {
	case <-done:
	case <-timeout:
		incomplete = true
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	closed = true
	snapshot := append([]*memberResult(nil), results...)
	mu.Unlock()

	group := domain.EvidenceGroup{ID: groupID, Expected: len(sources)}
	var (
		members []domain.MemberOutcome
		skipped = make(map[string]string)
		errs    []error
		notes   []string
	)
	for i, src := range sources {
		res := snapshot[i]
		switch {
		case res == nil:
			skipped[src.id] = domain.ErrGroupIncomplete.Error() + ": timed out before aggregation"
		case res.err != nil:
			skipped[src.id] = res.err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", src.id, res.err))
		default:
			group.Members = append(group.Members, res.ev)
			members = append(members, domain.MemberOutcome{
				UnitID:       src.id,
				Score:        res.score,
				Completeness: res.ev.Completeness,
			})
		}
	}
	if incomplete {
		notes = append(notes, fmt.Sprintf("%s: %d of %d members finished before the deadline",
			domain.ErrGroupIncomplete, len(group.Members)+len(errs), len(sources)))
	}
	if len(members) == 0 {
		if len(errs) == 0 {
			return nil, fmt.Errorf("%w: no member of %s finished", domain.ErrGroupIncomplete, groupID)
		}
		return nil, fmt.Errorf("%w: no member of %s produced evidence: %w",
			domain.ErrInsufficientEvidence, groupID, errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings := s.deps.Consistency.Analyze(group)

	b := Briefing{
		SubjectID: groupID,
		Kind:      domain.VerdictGroup,
		Mode:      r.mode,
		Genre:     r.genre,
		Metadata:  req.Metadata,
		Findings:  findings,
		Members:   len(members),
	}
	b.Score = members[governingMember(members)].Score
	agents := s.runAgents(ctx, r, b)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := s.deps.Assembler.AssembleGroup(group, members, findings, agents, VerdictOptions{
		Mode:    r.mode,
		Genre:   r.genre,
		Skipped: skipped,
		Notes:   notes,
	})
	s.save(ctx, v)
	return &v, nil
}

func (s *AnalysisService) processMember(ctx context.Context, src memberSource, r *analysisRun) memberResult {
	if err := ctx.Err(); err != nil {
		return memberResult{err: err}
	}
	unit, err := src.load(ctx)
	if err != nil {
		return memberResult{err: err}
	}
	ev, score, err := s.scoreUnit(ctx, unit, r)
	if err != nil {
		logger.Named("analysis").Debug().Str("unit", src.id).Err(err).Msg("member skipped")
	}
	return memberResult{ev: ev, score: score, err: err}
}

// Extractors lists the registered extractors and the modes selecting them.
func (s *AnalysisService) Extractors() []driving.ExtractorInfo {
	all := s.deps.Registry.All()
	infos := make([]driving.ExtractorInfo, len(all))
	for i, e := range all {
		info := driving.ExtractorInfo{
			Name:         e.Name(),
			Index:        i,
			Requirements: e.Requirements(),
			Metrics:      e.Metrics(),
		}
		for _, mode := range domain.AllAnalysisModes() {
			for _, name := range s.deps.Profiles[mode].Extractors {
				if name == e.Name() {
					info.Modes = append(info.Modes, mode)
					break
				}
			}
		}
		infos[i] = info
	}
	return infos
}
