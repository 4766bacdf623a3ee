package domain

import "time"

// VerdictKind distinguishes single-unit and group verdicts.
type VerdictKind string

// Available verdict kinds.
const (
	VerdictUnit  VerdictKind = "unit"
	VerdictGroup VerdictKind = "group"
)

// MemberOutcome summarises one member of a group verdict.
type MemberOutcome struct {
	UnitID       string          `json:"unit_id"`
	Score        ConfidenceScore `json:"score"`
	Completeness float64         `json:"completeness"`
}

// Verdict is the terminal artefact of one analysis run.
// It is created once and handed to reporting by value.
type Verdict struct {
	ID           string               `json:"id"`
	SubjectID    string               `json:"subject_id"`
	Kind         VerdictKind          `json:"kind"`
	Mode         AnalysisMode         `json:"mode"`
	Genre        string               `json:"genre,omitempty"`
	Score        ConfidenceScore      `json:"score"`
	Findings     []ConsistencyFinding `json:"findings"`
	Messages     []AgentMessage       `json:"messages"`
	Summary      string               `json:"summary"`
	Degraded     []AgentRole          `json:"degraded,omitempty"`
	Members      []MemberOutcome      `json:"members,omitempty"`
	Skipped      map[string]string    `json:"skipped,omitempty"`
	Completeness float64              `json:"completeness"`
	Notes        []string             `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// VerdictSummary is the listing view of a stored verdict.
type VerdictSummary struct {
	ID        string       `json:"id"`
	SubjectID string       `json:"subject_id"`
	Kind      VerdictKind  `json:"kind"`
	Mode      AnalysisMode `json:"mode"`
	Score     float64      `json:"score"`
	Label     VerdictLabel `json:"label"`
	CreatedAt time.Time    `json:"created_at"`
}

// Summarise returns the listing view of the verdict.
func (v Verdict) Summarise() VerdictSummary {
	return VerdictSummary{
		ID:        v.ID,
		SubjectID: v.SubjectID,
		Kind:      v.Kind,
		Mode:      v.Mode,
		Score:     v.Score.Value,
		Label:     v.Score.Label,
		CreatedAt: v.CreatedAt,
	}
}
