package domain

// FindingClass classifies a consistency deviation.
type FindingClass string

// Available finding classes.
const (
	// FindingOutlier is an informational deviation confined to codec-sensitive metrics.
	FindingOutlier FindingClass = "outlier"

	// FindingDifferentSource is a deviation on content metrics that suggests
	// the member is not the same recording.
	FindingDifferentSource FindingClass = "likely_different_source"

	// FindingHybridSuspect marks a minority member deviating sharply on
	// AI-discriminating metrics while the rest of the group clusters tightly.
	FindingHybridSuspect FindingClass = "hybrid_suspect"
)

// String returns the string representation.
func (c FindingClass) String() string {
	return string(c)
}

// Description returns a human-readable description of the class.
func (c FindingClass) Description() string {
	switch c {
	case FindingOutlier:
		return "Encoding outlier"
	case FindingDifferentSource:
		return "Likely different source"
	case FindingHybridSuspect:
		return "Hybrid suspect"
	default:
		return unknownDescription
	}
}

// ConsistencyFinding records one group member deviating on one metric.
type ConsistencyFinding struct {
	GroupID  string       `json:"group_id"`
	MemberID string       `json:"member_id"`
	Metric   string       `json:"metric"`
	Value    float64      `json:"value"`
	Baseline float64      `json:"baseline"`
	Class    FindingClass `json:"class"`

	// Deviation is the distance from the baseline in spread units
	// (MAD multiples, or relative difference for pairs).
	Deviation float64 `json:"deviation"`

	// LowConfidence marks findings computed over a partial group.
	LowConfidence bool `json:"low_confidence,omitempty"`
}
