package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func newTestServer(t *testing.T, analysis *mockAnalysisService, history *mockHistoryService) *Server {
	t.Helper()
	ports := &Ports{Analysis: analysis}
	if history != nil {
		ports.History = history
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("returns verdict", func(t *testing.T) {
		analysis := &mockAnalysisService{verdict: sampleVerdict()}
		server := newTestServer(t, analysis, nil)

		input := AnalyzeInput{Path: "/music/track.wav", Mode: "deep", Artist: "Nobody", SkipAgents: true}
		_, output, err := server.handleAnalyze(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "/music/track.wav", analysis.lastPath)
		assert.Equal(t, domain.ModeDeep, analysis.lastReq.Mode)
		assert.True(t, analysis.lastReq.SkipAgents)
		assert.Equal(t, "Nobody", analysis.lastReq.Metadata.Artist)

		assert.Equal(t, "v-1", output.ID)
		assert.Equal(t, "likely_ai", output.Label)
		assert.InDelta(t, 0.82, output.Score, 1e-9)
		require.Len(t, output.Reasons, 1)
		assert.Contains(t, output.Reasons[0], "Hard spectral cutoff")
		assert.Equal(t, []string{"suno"}, output.Fingerprints)
		assert.Equal(t, []string{"critic"}, output.Degraded)
	})

	t.Run("empty mode uses configured default", func(t *testing.T) {
		analysis := &mockAnalysisService{verdict: sampleVerdict()}
		server := newTestServer(t, analysis, nil)

		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "a.wav"})
		require.NoError(t, err)
		assert.Empty(t, analysis.lastReq.Mode)
	})

	t.Run("missing path", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{}, nil)
		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid mode", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{}, nil)
		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "a.wav", Mode: "turbo"})
		assert.ErrorIs(t, err, domain.ErrInvalidMode)
	})

	t.Run("analysis failure is returned", func(t *testing.T) {
		analysis := &mockAnalysisService{err: domain.ErrInsufficientEvidence}
		server := newTestServer(t, analysis, nil)
		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "a.wav"})
		assert.ErrorIs(t, err, domain.ErrInsufficientEvidence)
	})
}

func TestServer_handleGetVerdict(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		history := &mockHistoryService{verdicts: map[string]*domain.Verdict{"v-1": sampleVerdict()}}
		server := newTestServer(t, &mockAnalysisService{}, history)

		_, output, err := server.handleGetVerdict(ctx, nil, GetVerdictInput{ID: "v-1"})
		require.NoError(t, err)
		assert.Equal(t, "track.wav", output.SubjectID)
	})

	t.Run("not found", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{}, &mockHistoryService{})
		_, _, err := server.handleGetVerdict(ctx, nil, GetVerdictInput{ID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("history not configured", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{}, nil)
		_, _, err := server.handleGetVerdict(ctx, nil, GetVerdictInput{ID: "v-1"})
		assert.ErrorIs(t, err, errHistoryUnavailable)
	})
}

func TestServer_handleListVerdicts(t *testing.T) {
	ctx := context.Background()
	summaries := []domain.VerdictSummary{sampleVerdict().Summarise()}

	t.Run("default limit is 20", func(t *testing.T) {
		history := &mockHistoryService{summaries: summaries}
		server := newTestServer(t, &mockAnalysisService{}, history)

		_, output, err := server.handleListVerdicts(ctx, nil, ListVerdictsInput{})
		require.NoError(t, err)
		assert.Equal(t, 20, history.lastLimit)
		assert.Equal(t, 1, output.Count)
	})

	t.Run("subject filter", func(t *testing.T) {
		history := &mockHistoryService{summaries: summaries}
		server := newTestServer(t, &mockAnalysisService{}, history)

		_, _, err := server.handleListVerdicts(ctx, nil, ListVerdictsInput{Subject: "album"})
		require.NoError(t, err)
		assert.Equal(t, "album", history.lastSubject)
		assert.Zero(t, history.lastLimit)
	})

	t.Run("empty history returns empty slice", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{}, &mockHistoryService{})

		_, output, err := server.handleListVerdicts(ctx, nil, ListVerdictsInput{Limit: 5})
		require.NoError(t, err)
		assert.NotNil(t, output.Verdicts)
		assert.Zero(t, output.Count)
	})

	t.Run("storage error", func(t *testing.T) {
		history := &mockHistoryService{err: errors.New("database locked")}
		server := newTestServer(t, &mockAnalysisService{}, history)

		_, _, err := server.handleListVerdicts(ctx, nil, ListVerdictsInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database locked")
	})
}
