package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

func TestBriefingDigest(t *testing.T) {
	b := Briefing{
		SubjectID: "album",
		Kind:      domain.VerdictGroup,
		Mode:      domain.ModeStandard,
		Genre:     "lofi",
		Members:   3,
		Score: domain.ConfidenceScore{
			Value:        0.8,
			Label:        domain.LabelLikelyAI,
			Fingerprints: []string{"suno"},
			Reasons: []domain.DetectionReason{
				{Label: "Band-limited spectrum", Direction: domain.DirectionAI, Weight: 0.6, Value: 15000},
			},
		},
		Findings: []domain.ConsistencyFinding{
			{Class: domain.FindingOutlier},
			{Class: domain.FindingOutlier},
			{Class: domain.FindingHybridSuspect},
		},
	}

	digest := b.Digest()
	assert.Equal(t, digest, b.Digest())
	assert.Contains(t, digest, "Subject: album (group, mode standard)")
	assert.Contains(t, digest, "Genre profile: lofi")
	assert.Contains(t, digest, "AI likelihood: 0.80 (Likely AI-generated)")
	assert.Contains(t, digest, "Band-limited spectrum")
	assert.Contains(t, digest, "Provider fingerprints: suno")
	assert.Contains(t, digest, "Consistency: 3 findings (2 outlier, 1 hybrid_suspect)")
	assert.False(t, strings.HasSuffix(digest, "\n"))
}

func TestBriefingDigest_TruncatesReasons(t *testing.T) {
	var reasons []domain.DetectionReason
	for i := 0; i < 8; i++ {
		reasons = append(reasons, domain.DetectionReason{Label: "r"})
	}
	b := Briefing{SubjectID: "u", Kind: domain.VerdictUnit, Score: domain.ConfidenceScore{Reasons: reasons}}
	assert.Contains(t, b.Digest(), "... 3 more")
	assert.NotContains(t, b.Digest(), "Consistency")
}

func TestBriefingResearchInput(t *testing.T) {
	b := Briefing{SubjectID: "u", Metadata: domain.Metadata{Artist: "Nobody", Title: "Song"}}
	in := b.researchInput()
	assert.Contains(t, in, "Artist: Nobody")
	assert.Contains(t, in, "Title: Song")
	assert.NotContains(t, in, "Album:")
}
