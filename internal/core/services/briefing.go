package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// maxDigestReasons bounds how many reasons a digest lists.
const maxDigestReasons = 5

// Briefing is the evidence handed to the agent roles.
type Briefing struct {
	SubjectID string
	Kind      domain.VerdictKind
	Mode      domain.AnalysisMode
	Genre     string
	Metadata  domain.Metadata
	Score     domain.ConfidenceScore
	Findings  []domain.ConsistencyFinding
	Members   int
}

// Digest renders the briefing as deterministic plain text.
func (b Briefing) Digest() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s (%s, mode %s)\n", b.SubjectID, b.Kind, b.Mode)
	if b.Genre != "" {
		fmt.Fprintf(&sb, "Genre profile: %s\n", b.Genre)
	}
	fmt.Fprintf(&sb, "AI likelihood: %.2f (%s)\n", b.Score.Value, b.Score.Label.Description())

	if len(b.Score.Reasons) == 0 {
		sb.WriteString("No detector fired.\n")
	} else {
		sb.WriteString("Top reasons:\n")
		for i, r := range b.Score.Reasons {
			if i == maxDigestReasons {
				fmt.Fprintf(&sb, "  ... %d more\n", len(b.Score.Reasons)-i)
				break
			}
			fmt.Fprintf(&sb, "  - %s [%s, weight %.2f, value %.4g]\n", r.Label, r.Direction, r.Weight, r.Value)
		}
	}
	if len(b.Score.Fingerprints) > 0 {
		fmt.Fprintf(&sb, "Provider fingerprints: %s\n", strings.Join(b.Score.Fingerprints, ", "))
	}
	if b.Kind == domain.VerdictGroup {
		fmt.Fprintf(&sb, "Members analysed: %d\n", b.Members)
		if len(b.Findings) == 0 {
			sb.WriteString("Consistency: no deviations\n")
		} else {
			fmt.Fprintf(&sb, "Consistency: %s\n", findingCounts(b.Findings))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// researchInput is the Researcher's prompt body.
func (b Briefing) researchInput() string {
	md := b.Metadata
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\n", b.SubjectID)
	for _, kv := range [][2]string{
		{"Artist", md.Artist},
		{"Title", md.Title},
		{"Album", md.Album},
		{"Genre", md.Genre},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s: %s\n", kv[0], kv[1])
		}
	}
	sb.WriteString("Summarise what is publicly known about this artist and release that bears on whether it was generated.")
	return sb.String()
}

// findingCounts renders "3 findings (2 outlier, 1 hybrid_suspect)".
func findingCounts(findings []domain.ConsistencyFinding) string {
	classes := []domain.FindingClass{
		domain.FindingOutlier,
		domain.FindingDifferentSource,
		domain.FindingHybridSuspect,
	}
	counts := make(map[domain.FindingClass]int)
	for _, f := range findings {
		counts[f.Class]++
	}
	var parts []string
	for _, c := range classes {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[c], c))
		}
	}
	noun := "findings"
	if len(findings) == 1 {
		noun = "finding"
	}
	return fmt.Sprintf("%d %s (%s)", len(findings), noun, strings.Join(parts, ", "))
}
