package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/metrics"
)

// VerdictOptions carries the run context stamped onto a verdict.
type VerdictOptions struct {
	Mode    domain.AnalysisMode
	Genre   string
	Skipped map[string]string
	Notes   []string
}

// VerdictAssembler builds immutable verdicts from pipeline outputs.
type VerdictAssembler struct {
	now     func() time.Time
	metrics *metrics.Metrics
}

// NewVerdictAssembler creates an assembler. A nil clock uses time.Now.
func NewVerdictAssembler(clock func() time.Time, m *metrics.Metrics) *VerdictAssembler {
	if clock == nil {
		clock = time.Now
	}
	return &VerdictAssembler{now: clock, metrics: m}
}

// AssembleUnit builds the verdict for a single unit.
func (a *VerdictAssembler) AssembleUnit(
	ev domain.EvidenceVector,
	score domain.ConfidenceScore,
	run domain.AgentRun,
	opts VerdictOptions,
) domain.Verdict {
	v := domain.Verdict{
		ID:           uuid.New().String(),
		SubjectID:    ev.UnitID,
		Kind:         domain.VerdictUnit,
		Mode:         opts.Mode,
		Genre:        opts.Genre,
		Score:        copyScore(score),
		Findings:     []domain.ConsistencyFinding{},
		Messages:     copyMessages(run.Messages),
		Degraded:     append([]domain.AgentRole(nil), run.Degraded...),
		Skipped:      copySkipped(opts.Skipped),
		Completeness: ev.Completeness,
		Notes:        joinNotes(ev.Notes, score.Notes, opts.Notes),
		CreatedAt:    a.now().UTC(),
	}
	v.Summary = a.summary(v, run)
	a.metrics.ObserveVerdict(string(v.Kind), string(v.Score.Label))
	return v
}

// AssembleGroup builds the verdict for a release. The group score is the
// most suspicious member's score.
func (a *VerdictAssembler) AssembleGroup(
	group domain.EvidenceGroup,
	members []domain.MemberOutcome,
	findings []domain.ConsistencyFinding,
	run domain.AgentRun,
	opts VerdictOptions,
) domain.Verdict {
	v := domain.Verdict{
		ID:        uuid.New().String(),
		SubjectID: group.ID,
		Kind:      domain.VerdictGroup,
		Mode:      opts.Mode,
		Genre:     opts.Genre,
		Findings:  append([]domain.ConsistencyFinding{}, findings...),
		Messages:  copyMessages(run.Messages),
		Degraded:  append([]domain.AgentRole(nil), run.Degraded...),
		Members:   make([]domain.MemberOutcome, len(members)),
		Skipped:   copySkipped(opts.Skipped),
		Notes:     append([]string(nil), opts.Notes...),
		CreatedAt: a.now().UTC(),
	}

	var completeness float64
	for i, m := range members {
		v.Members[i] = domain.MemberOutcome{
			UnitID:       m.UnitID,
			Score:        copyScore(m.Score),
			Completeness: m.Completeness,
		}
		completeness += m.Completeness
	}
	governing := governingMember(members)

	if governing >= 0 {
		v.Score = copyScore(members[governing].Score)
		v.Completeness = completeness / float64(len(members))
		v.Notes = append(v.Notes, "group score governed by "+members[governing].UnitID)
	} else {
		v.Score = domain.ConfidenceScore{
			Value:   domain.NeutralScore,
			Label:   domain.LabelFor(domain.NeutralScore),
			Reasons: []domain.DetectionReason{},
		}
		v.Notes = append(v.Notes, "no member produced evidence")
	}

	v.Summary = a.summary(v, run)
	a.metrics.ObserveVerdict(string(v.Kind), string(v.Score.Label))
	return v
}

// governingMember returns the index of the highest-scoring member, the
// first on ties, or -1 when there are none.
func governingMember(members []domain.MemberOutcome) int {
	best := -1
	for i, m := range members {
		if best < 0 || m.Score.Value > members[best].Score.Value {
			best = i
		}
	}
	return best
}

// summary prefers the Reporter's prose and falls back to the template.
func (a *VerdictAssembler) summary(v domain.Verdict, run domain.AgentRun) string {
	if out, ok := run.Output(domain.RoleReporter); ok && strings.TrimSpace(out) != "" {
		return out
	}
	return TemplateSummary(v)
}

// TemplateSummary renders a deterministic summary for a verdict.
func TemplateSummary(v domain.Verdict) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (score %.2f, mode %s)\n", v.Score.Label.Description(), v.Score.Value, v.Mode)

	if len(v.Score.Reasons) == 0 {
		sb.WriteString("No detector fired; the score is neutral.\n")
	} else {
		sb.WriteString("Top reasons:\n")
		for i, r := range v.Score.Reasons {
			if i == maxDigestReasons {
				break
			}
			fmt.Fprintf(&sb, "  - %s (%s, weight %.2f)\n", r.Label, directionText(r.Direction), r.Weight)
		}
	}
	if len(v.Score.Fingerprints) > 0 {
		fmt.Fprintf(&sb, "Provider fingerprints: %s\n", strings.Join(v.Score.Fingerprints, ", "))
	}

	if v.Kind == domain.VerdictGroup {
		fmt.Fprintf(&sb, "Members: %d analysed", len(v.Members))
		if len(v.Skipped) > 0 {
			fmt.Fprintf(&sb, ", %d skipped", len(v.Skipped))
		}
		sb.WriteString("\n")
		if len(v.Findings) == 0 {
			sb.WriteString("Consistency: no deviations\n")
		} else {
			fmt.Fprintf(&sb, "Consistency: %s\n", findingCounts(v.Findings))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func directionText(d domain.Direction) string {
	if d == domain.DirectionAI {
		return "suggests AI"
	}
	return "suggests human"
}

func copyScore(s domain.ConfidenceScore) domain.ConfidenceScore {
	c := s
	c.Reasons = append([]domain.DetectionReason{}, s.Reasons...)
	c.Fingerprints = append([]string(nil), s.Fingerprints...)
	c.Notes = append([]string(nil), s.Notes...)
	return c
}

func copyMessages(msgs []domain.AgentMessage) []domain.AgentMessage {
	return append([]domain.AgentMessage{}, msgs...)
}

func copySkipped(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func joinNotes(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
