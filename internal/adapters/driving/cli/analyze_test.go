package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func TestAnalyzeCmd_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	for _, args := range [][]string{
		{"analyze", "a.wav"},
		{"album", "a.wav"},
		{"compare", "a.wav", "b.wav"},
		{"extractors"},
	} {
		_, err := execute(t, args...)
		assert.ErrorIs(t, err, errAnalysisNotConfigured, args)
	}
}

func TestAnalyzeCmd_PrintsVerdict(t *testing.T) {
	analysis := &fakeAnalysis{verdict: unitVerdict()}
	withServices(t, Services{Analysis: analysis})

	out, err := execute(t, "analyze", "track01.wav", "--mode", "deep", "--artist", "Nobody", "--no-agents", "-g", "lofi")
	require.NoError(t, err)

	assert.Equal(t, []string{"track01.wav"}, analysis.paths)
	assert.Equal(t, domain.ModeDeep, analysis.req.Mode)
	assert.Equal(t, "lofi", analysis.req.Genre)
	assert.True(t, analysis.req.SkipAgents)
	assert.Equal(t, "Nobody", analysis.req.Metadata.Artist)

	assert.Contains(t, out, "track01.wav")
	assert.Contains(t, out, "0.81")
	assert.Contains(t, out, "+ Spectrum ends abruptly at 16 kHz")
	assert.Contains(t, out, "- Natural vibrato")
	assert.Contains(t, out, "suno")
	assert.Contains(t, out, "Executive Summary")
	assert.Contains(t, out, "Degraded agents: critic")
	assert.Contains(t, out, "verdict v-unit")
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	withServices(t, Services{Analysis: &fakeAnalysis{verdict: unitVerdict()}})

	out, err := execute(t, "analyze", "track01.wav", "--json")
	require.NoError(t, err)

	var got domain.Verdict
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "v-unit", got.ID)
	assert.Equal(t, domain.LabelLikelyAI, got.Score.Label)
}

func TestAnalyzeCmd_HelpMatchesModeDescriptions(t *testing.T) {
	for _, m := range domain.AllAnalysisModes() {
		assert.Contains(t, analyzeCmd.Long, m.Description(), m)
	}
	assert.Contains(t, analyzeCmd.Long, "standard  - Standard (adds peaks, stereo, silence)")
	assert.NotContains(t, analyzeCmd.Long, "vocal pitch and silence")
}

func TestAnalyzeCmd_InvalidMode(t *testing.T) {
	analysis := &fakeAnalysis{verdict: unitVerdict()}
	withServices(t, Services{Analysis: analysis})

	_, err := execute(t, "analyze", "a.wav", "--mode", "turbo")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
	assert.Nil(t, analysis.paths)
}

func TestAnalyzeCmd_PropagatesFailure(t *testing.T) {
	withServices(t, Services{Analysis: &fakeAnalysis{err: domain.ErrInsufficientEvidence}})

	_, err := execute(t, "analyze", "a.wav")
	assert.ErrorIs(t, err, domain.ErrInsufficientEvidence)
}

func TestAlbumCmd_ScansDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Night Drive")
	require.NoError(t, os.Mkdir(dir, 0o750))
	for _, name := range []string{"02.flac", "01.wav", "cover.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "extras.wav"), 0o750))

	analysis := &fakeAnalysis{verdict: groupVerdict()}
	withServices(t, Services{Analysis: analysis})

	out, err := execute(t, "album", dir)
	require.NoError(t, err)

	assert.Equal(t, "Night Drive", analysis.groupID)
	assert.Equal(t, []string{filepath.Join(dir, "01.wav"), filepath.Join(dir, "02.flac")}, analysis.paths)
	assert.Contains(t, out, "Members")
	assert.Contains(t, out, "b.wav")
	assert.Contains(t, out, "c.wav: insufficient evidence")
	assert.Contains(t, out, "outlier a.wav tempo_cv")
}

func TestAlbumCmd_ExplicitFilesAndID(t *testing.T) {
	analysis := &fakeAnalysis{verdict: groupVerdict()}
	withServices(t, Services{Analysis: analysis})

	_, err := execute(t, "album", "music/a.wav", "music/b.wav", "--id", "my-album")
	require.NoError(t, err)
	assert.Equal(t, "my-album", analysis.groupID)
	assert.Equal(t, []string{"music/a.wav", "music/b.wav"}, analysis.paths)

	_, err = execute(t, "album", "music/a.wav", "music/b.wav")
	require.NoError(t, err)
	assert.Equal(t, "music", analysis.groupID)
}

func TestAlbumCmd_EmptyDirectory(t *testing.T) {
	withServices(t, Services{Analysis: &fakeAnalysis{verdict: groupVerdict()}})

	_, err := execute(t, "album", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompareCmd(t *testing.T) {
	analysis := &fakeAnalysis{verdict: groupVerdict()}
	withServices(t, Services{Analysis: analysis})

	_, err := execute(t, "compare", "dl/song.flac", "rip/song.mp3")
	require.NoError(t, err)
	assert.Equal(t, "compare:song.flac|song.mp3", analysis.groupID)
	assert.Equal(t, []string{"dl/song.flac", "rip/song.mp3"}, analysis.paths)

	_, err = execute(t, "compare", "only-one.wav")
	assert.Error(t, err)
}
