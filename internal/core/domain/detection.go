package domain

// Direction encodes which hypothesis a detection reason supports.
type Direction string

// Available directions.
const (
	DirectionAI    Direction = "supports_ai"
	DirectionHuman Direction = "supports_human"
)

// String returns the string representation.
func (d Direction) String() string {
	return string(d)
}

// ReasonSource identifies which detector produced a reason.
type ReasonSource string

// Available reason sources.
const (
	SourceHeuristic   ReasonSource = "heuristic"
	SourceClassifier  ReasonSource = "classifier"
	SourceFingerprint ReasonSource = "fingerprint"
)

// DetectionReason is one named signal contributing to a confidence score.
type DetectionReason struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Direction Direction    `json:"direction"`
	Weight    float64      `json:"weight"`
	Value     float64      `json:"value"`
	Metric    string       `json:"metric,omitempty"`
	Source    ReasonSource `json:"source"`

	// Order is the registration index used to break weight ties.
	Order int `json:"-"`

	// Fingerprint is the provider label for fingerprint reasons.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// NewDetectionReason creates a reason. Negative weights are clamped to zero.
func NewDetectionReason(id, label string, dir Direction, weight, value float64) DetectionReason {
	if weight < 0 {
		weight = 0
	}
	return DetectionReason{
		ID:        id,
		Label:     label,
		Direction: dir,
		Weight:    weight,
		Value:     value,
	}
}

// Vote returns the reason's contribution to the AI probability.
// Classifier reasons vote with their probability.
func (r DetectionReason) Vote() float64 {
	if r.Source == SourceClassifier {
		return r.Value
	}
	if r.Direction == DirectionAI {
		return 1
	}
	return 0
}

// VerdictLabel buckets a confidence value for reporting.
type VerdictLabel string

// Available verdict labels.
const (
	LabelLikelyAI    VerdictLabel = "likely_ai"
	LabelUncertain   VerdictLabel = "uncertain"
	LabelLikelyHuman VerdictLabel = "likely_human"
	LabelHuman       VerdictLabel = "human"
)

// Probability thresholds for verdict labels.
const (
	ThresholdHigh   = 0.7
	ThresholdMedium = 0.4
	ThresholdLow    = 0.2
)

// LabelFor returns the label for a confidence value.
func LabelFor(value float64) VerdictLabel {
	switch {
	case value >= ThresholdHigh:
		return LabelLikelyAI
	case value >= ThresholdMedium:
		return LabelUncertain
	case value >= ThresholdLow:
		return LabelLikelyHuman
	default:
		return LabelHuman
	}
}

// Description returns a human-readable description of the label.
func (l VerdictLabel) Description() string {
	switch l {
	case LabelLikelyAI:
		return "Likely AI-generated"
	case LabelUncertain:
		return "Uncertain"
	case LabelLikelyHuman:
		return "Likely human-performed"
	case LabelHuman:
		return "Human-performed"
	default:
		return unknownDescription
	}
}

// ConfidenceScore is the ensemble's estimate that a unit is AI-generated.
type ConfidenceScore struct {
	Value          float64           `json:"value"`
	Label          VerdictLabel      `json:"label"`
	Reasons        []DetectionReason `json:"reasons"`
	Fingerprints   []string          `json:"fingerprints,omitempty"`
	ClassifierUsed bool              `json:"classifier_used"`
	Notes          []string          `json:"notes,omitempty"`
}

// NeutralScore is the value reported when no detector fired.
const NeutralScore = 0.5
