package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
	"github.com/custodia-labs/musictruth-cli/internal/core/services"
)

// execute runs the root command with args and returns its combined output.
// Flag variables are reset first so tests do not leak into each other.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	verboseFlag, jsonFlag, metricsFile = false, false, ""
	modeFlag, genreFlag, noAgentsFlag = "", "", false
	artistFlag, titleFlag, albumFlag, groupIDFlag = "", "", "", ""
	historyLimit, historySubject = 20, ""
	providerModel, providerAPIKey, providerRetries = "", "", domain.DefaultProviderRetries
	classifierWeight = domain.DefaultClassifierWeight
	mcpPort, servePort = 0, 8080
	mcpHost, serveHost = defaultHost, defaultHost

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	prev := Services{Analysis: analysisService, History: historyService, Settings: settingsService, Metrics: appMetrics}
	SetServices(s)
	t.Cleanup(func() { SetServices(prev) })
}

type fakeAnalysis struct {
	verdict *domain.Verdict
	err     error
	infos   []driving.ExtractorInfo

	paths   []string
	groupID string
	req     driving.AnalysisRequest
}

func (f *fakeAnalysis) AnalyzeUnit(_ context.Context, u domain.AudioUnit, req driving.AnalysisRequest) (*domain.Verdict, error) {
	f.paths = []string{u.SourcePath}
	f.req = req
	return f.verdict, f.err
}

func (f *fakeAnalysis) AnalyzeGroup(_ context.Context, groupID string, _ []domain.AudioUnit, req driving.AnalysisRequest) (*domain.Verdict, error) {
	f.groupID = groupID
	f.req = req
	return f.verdict, f.err
}

func (f *fakeAnalysis) AnalyzeFile(_ context.Context, path string, req driving.AnalysisRequest) (*domain.Verdict, error) {
	f.paths = []string{path}
	f.req = req
	return f.verdict, f.err
}

func (f *fakeAnalysis) AnalyzeFiles(_ context.Context, groupID string, paths []string, req driving.AnalysisRequest) (*domain.Verdict, error) {
	f.groupID = groupID
	f.paths = paths
	f.req = req
	return f.verdict, f.err
}

func (f *fakeAnalysis) Extractors() []driving.ExtractorInfo { return f.infos }

type fakeValidator struct {
	failing map[domain.AIProvider]error
}

func (f *fakeValidator) ValidateProvider(p *domain.ProviderSettings) error {
	return f.failing[p.Provider]
}

func newHistory(t *testing.T, verdicts ...domain.Verdict) *services.HistoryService {
	t.Helper()
	store := memory.NewVerdictStore()
	for _, v := range verdicts {
		if err := store.Save(context.Background(), v); err != nil {
			t.Fatal(err)
		}
	}
	return services.NewHistoryService(store)
}

func newSettings(validator *fakeValidator) *services.SettingsService {
	if validator == nil {
		return services.NewSettingsService(memory.NewConfigStore(), nil, nil)
	}
	return services.NewSettingsService(memory.NewConfigStore(), validator, nil)
}

func unitVerdict() *domain.Verdict {
	return &domain.Verdict{
		ID:        "v-unit",
		SubjectID: "track01.wav",
		Kind:      domain.VerdictUnit,
		Mode:      domain.ModeStandard,
		Score: domain.ConfidenceScore{
			Value: 0.81,
			Label: domain.LabelLikelyAI,
			Reasons: []domain.DetectionReason{
				{ID: "cutoff", Label: "Spectrum ends abruptly at 16 kHz", Direction: domain.DirectionAI, Weight: 0.3, Source: domain.SourceHeuristic},
				{ID: "pitch", Label: "Natural vibrato", Direction: domain.DirectionHuman, Weight: 0.2, Source: domain.SourceHeuristic},
			},
			Fingerprints: []string{"suno"},
		},
		Summary:      "## Executive Summary\nLikely generated.",
		Degraded:     []domain.AgentRole{domain.RoleCritic},
		Completeness: 0.9,
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func groupVerdict() *domain.Verdict {
	return &domain.Verdict{
		ID:        "v-group",
		SubjectID: "album",
		Kind:      domain.VerdictGroup,
		Mode:      domain.ModeDeep,
		Score:     domain.ConfidenceScore{Value: 0.7, Label: domain.LabelLikelyAI},
		Members: []domain.MemberOutcome{
			{UnitID: "a.wav", Score: domain.ConfidenceScore{Value: 0.7, Label: domain.LabelLikelyAI}},
			{UnitID: "b.wav", Score: domain.ConfidenceScore{Value: 0.2, Label: domain.LabelLikelyHuman}},
		},
		Skipped: map[string]string{"c.wav": "insufficient evidence"},
		Findings: []domain.ConsistencyFinding{
			{Class: domain.FindingOutlier, MemberID: "a.wav", Metric: "tempo_cv", Value: 0.01, Baseline: 0.05, Deviation: 3.1},
		},
		CreatedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}
