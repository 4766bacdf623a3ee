package mcp

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	verdict    *domain.Verdict
	extractors []driving.ExtractorInfo
	err        error

	lastPath string
	lastReq  driving.AnalysisRequest
}

func (m *mockAnalysisService) AnalyzeUnit(
	_ context.Context,
	_ domain.AudioUnit,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	m.lastReq = req
	return m.verdict, m.err
}

func (m *mockAnalysisService) AnalyzeGroup(
	_ context.Context,
	_ string,
	_ []domain.AudioUnit,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	m.lastReq = req
	return m.verdict, m.err
}

func (m *mockAnalysisService) AnalyzeFile(
	_ context.Context,
	path string,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	m.lastPath = path
	m.lastReq = req
	return m.verdict, m.err
}

func (m *mockAnalysisService) AnalyzeFiles(
	_ context.Context,
	_ string,
	_ []string,
	req driving.AnalysisRequest,
) (*domain.Verdict, error) {
	m.lastReq = req
	return m.verdict, m.err
}

func (m *mockAnalysisService) Extractors() []driving.ExtractorInfo {
	return m.extractors
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	verdicts  map[string]*domain.Verdict
	summaries []domain.VerdictSummary
	err       error

	lastLimit   int
	lastSubject string
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.Verdict, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.verdicts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockHistoryService) List(_ context.Context, limit int) ([]domain.VerdictSummary, error) {
	m.lastLimit = limit
	return m.summaries, m.err
}

func (m *mockHistoryService) ListBySubject(_ context.Context, subjectID string) ([]domain.VerdictSummary, error) {
	m.lastSubject = subjectID
	return m.summaries, m.err
}

func (m *mockHistoryService) Delete(_ context.Context, _ string) error {
	return m.err
}

func sampleVerdict() *domain.Verdict {
	return &domain.Verdict{
		ID:        "v-1",
		SubjectID: "track.wav",
		Kind:      domain.VerdictUnit,
		Mode:      domain.ModeStandard,
		Score: domain.ConfidenceScore{
			Value: 0.82,
			Label: domain.LabelLikelyAI,
			Reasons: []domain.DetectionReason{
				{ID: "cutoff", Label: "Hard spectral cutoff", Direction: domain.DirectionAI, Weight: 0.3},
			},
			Fingerprints: []string{"suno"},
		},
		Summary:      "Likely generated.",
		Degraded:     []domain.AgentRole{domain.RoleCritic},
		Completeness: 1,
	}
}
