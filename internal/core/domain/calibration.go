package domain

import (
	"fmt"
	"sort"
)

// Comparison is the operator a threshold rule applies.
type Comparison string

// Available comparisons.
const (
	CompareBelow Comparison = "below"
	CompareAbove Comparison = "above"
)

// IsValid returns true if the comparison is recognised.
func (c Comparison) IsValid() bool {
	return c == CompareBelow || c == CompareAbove
}

// ThresholdRule fires a detection reason when a metric crosses a threshold.
type ThresholdRule struct {
	ID        string
	Label     string
	Metric    string
	Op        Comparison
	Threshold float64
	Direction Direction
	Weight    float64

	// Fingerprint is set for provider-fingerprint rules.
	Fingerprint string
}

// Fires returns true if the value triggers the rule.
func (r ThresholdRule) Fires(value float64) bool {
	switch r.Op {
	case CompareBelow:
		return value < r.Threshold
	case CompareAbove:
		return value > r.Threshold
	default:
		return false
	}
}

// Source returns the reason source this rule produces.
func (r ThresholdRule) Source() ReasonSource {
	if r.Fingerprint != "" {
		return SourceFingerprint
	}
	return SourceHeuristic
}

// ThresholdTable is the ordered set of heuristic and fingerprint rules.
type ThresholdTable struct {
	Rules []ThresholdRule
}

// Rule returns the rule with the given ID.
func (t ThresholdTable) Rule(id string) (ThresholdRule, bool) {
	for _, r := range t.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return ThresholdRule{}, false
}

// Validate checks the table for unusable rules.
func (t ThresholdTable) Validate() error {
	seen := make(map[string]bool, len(t.Rules))
	for _, r := range t.Rules {
		if r.ID == "" || r.Metric == "" {
			return fmt.Errorf("%w: rule requires id and metric", ErrInvalidInput)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate rule %q", ErrInvalidInput, r.ID)
		}
		seen[r.ID] = true
		if !r.Op.IsValid() {
			return fmt.Errorf("%w: rule %q has invalid op %q", ErrInvalidInput, r.ID, r.Op)
		}
		if r.Direction != DirectionAI && r.Direction != DirectionHuman {
			return fmt.Errorf("%w: rule %q has invalid direction %q", ErrInvalidInput, r.ID, r.Direction)
		}
		if r.Weight < 0 {
			return fmt.Errorf("%w: rule %q has negative weight", ErrInvalidInput, r.ID)
		}
	}
	return nil
}

// WithProfile returns a new table with the genre profile's deltas applied.
// The receiver is not modified.
func (t ThresholdTable) WithProfile(p GenreProfile) ThresholdTable {
	rules := make([]ThresholdRule, len(t.Rules))
	copy(rules, t.Rules)
	for i := range rules {
		if d, ok := p.ThresholdDeltas[rules[i].ID]; ok {
			rules[i].Threshold += d
		}
		if s, ok := p.WeightScales[rules[i].ID]; ok && s >= 0 {
			rules[i].Weight *= s
		}
	}
	return ThresholdTable{Rules: rules}
}

// GenreProfile adjusts the default table for a genre's expected texture.
type GenreProfile struct {
	Name        string
	Description string

	// ThresholdDeltas maps rule ID to an additive threshold shift.
	ThresholdDeltas map[string]float64

	// WeightScales maps rule ID to a multiplicative weight factor.
	WeightScales map[string]float64
}

// Calibration bundles the threshold table with its genre profiles.
type Calibration struct {
	Thresholds ThresholdTable
	Genres     map[string]GenreProfile
}

// TableFor returns the table merged with the named genre.
// An empty genre returns the default table.
func (c Calibration) TableFor(genre string) (ThresholdTable, error) {
	if genre == "" {
		return c.Thresholds, nil
	}
	p, ok := c.Genres[genre]
	if !ok {
		return ThresholdTable{}, fmt.Errorf("%w: unknown genre profile %q", ErrInvalidInput, genre)
	}
	return c.Thresholds.WithProfile(p), nil
}

// GenreNames returns the known genre profiles in sorted order.
func (c Calibration) GenreNames() []string {
	names := make([]string, 0, len(c.Genres))
	for name := range c.Genres {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metric names emitted by the reference extractors.
const (
	MetricCutoffHz       = "spectral.cutoff_hz"
	MetricRolloffStd     = "spectral.rolloff_std"
	MetricPeakVariance   = "spectral.peak_variance"
	MetricTempoBPM       = "tempo.bpm"
	MetricTempoCV        = "tempo.interval_cv"
	MetricSideMidRatio   = "stereo.side_mid_ratio"
	MetricStereoCorr     = "stereo.correlation"
	MetricPitchDeviation = "vocal.pitch_deviation"
	MetricVoicedRatio    = "vocal.voiced_ratio"
	MetricSilenceRatio   = "silence.ratio"
	MetricMeanGap        = "silence.mean_gap_s"
	MetricChromaEntropy  = "entropy.chroma_bits"
	MetricSunoHFRatio    = "fingerprint.suno_hf_ratio"
	MetricUdioChirpRate  = "fingerprint.udio_chirp_rate"
	MetricContrastMean   = "spectral.contrast_mean_db"
	MetricContrastStd    = "spectral.contrast_std_db"
	MetricZCRMean        = "zcr.mean"
	MetricZCRStd         = "zcr.std"
	MetricHarmonicRatio  = "harmonic.energy_ratio"
	MetricRecurrence     = "structure.recurrence_density"
	MetricVocalActive    = "vocal.active_ratio"
	MetricBreathRate     = "vocal.breaths_per_min"
)

// Rule identifiers used by the default table and genre profiles.
const (
	RuleSpectralCutoff    = "spectral-cutoff"
	RuleSpectralPeaks     = "spectral-peaks"
	RuleTempoQuantization = "tempo-quantization"
	RuleTempoStability    = "tempo-stability"
	RuleStereoCollapsed   = "stereo-collapsed"
	RuleStereoPhase       = "stereo-phase"
	RulePitchQuantized    = "pitch-quantized"
	RulePitchNatural      = "pitch-natural"
	RuleSilenceSparse     = "silence-sparse"
	RuleLowEntropy        = "low-entropy"
	RuleSunoSheen         = "suno-sheen"
	RuleUdioChirp         = "udio-chirp"
	RuleContrastUniform   = "contrast-uniform"
	RuleZCRStable         = "zcr-stable"
	RuleLoopRepetition    = "loop-repetition"
	RuleContinuousVocals  = "continuous-vocals"
	RuleNaturalBreathing  = "natural-breathing"
)

// Provider fingerprint labels.
const (
	FingerprintSuno = "suno"
	FingerprintUdio = "udio"
)

// DefaultThresholdTable returns the built-in rule table.
func DefaultThresholdTable() ThresholdTable {
	return ThresholdTable{Rules: []ThresholdRule{
		{ID: RuleSpectralCutoff, Label: "Band-limited spectrum (frequency cutoff)", Metric: MetricCutoffHz,
			Op: CompareBelow, Threshold: 16000, Direction: DirectionAI, Weight: 0.6},
		{ID: RuleSpectralPeaks, Label: "Unnaturally smooth high-frequency spectrum", Metric: MetricPeakVariance,
			Op: CompareBelow, Threshold: 1e-4, Direction: DirectionAI, Weight: 0.4},
		{ID: RuleTempoQuantization, Label: "Robotically stable beat spacing", Metric: MetricTempoCV,
			Op: CompareBelow, Threshold: 0.01, Direction: DirectionAI, Weight: 0.5},
		{ID: RuleTempoStability, Label: "Natural tempo variation", Metric: MetricTempoCV,
			Op: CompareAbove, Threshold: 0.05, Direction: DirectionHuman, Weight: 0.3},
		{ID: RuleStereoCollapsed, Label: "Collapsed stereo image", Metric: MetricSideMidRatio,
			Op: CompareBelow, Threshold: 0.01, Direction: DirectionAI, Weight: 0.2},
		{ID: RuleStereoPhase, Label: "Phase-incoherent stereo field", Metric: MetricSideMidRatio,
			Op: CompareAbove, Threshold: 1.0, Direction: DirectionAI, Weight: 0.3},
		{ID: RulePitchQuantized, Label: "Pitch-quantised vocals", Metric: MetricPitchDeviation,
			Op: CompareBelow, Threshold: 0.05, Direction: DirectionAI, Weight: 0.5},
		{ID: RulePitchNatural, Label: "Natural vocal intonation", Metric: MetricPitchDeviation,
			Op: CompareAbove, Threshold: 0.15, Direction: DirectionHuman, Weight: 0.3},
		{ID: RuleSilenceSparse, Label: "Almost no silence or breathing gaps", Metric: MetricSilenceRatio,
			Op: CompareBelow, Threshold: 0.02, Direction: DirectionAI, Weight: 0.2},
		{ID: RuleLowEntropy, Label: "Extremely low pitch-class entropy", Metric: MetricChromaEntropy,
			Op: CompareBelow, Threshold: 1.0, Direction: DirectionAI, Weight: 0.3},
		{ID: RuleSunoSheen, Label: "Suno-like high-frequency sheen", Metric: MetricSunoHFRatio,
			Op: CompareAbove, Threshold: 0.05, Direction: DirectionAI, Weight: 0.3, Fingerprint: FingerprintSuno},
		{ID: RuleUdioChirp, Label: "Udio-like spectral chirps", Metric: MetricUdioChirpRate,
			Op: CompareAbove, Threshold: 0.2, Direction: DirectionAI, Weight: 0.3, Fingerprint: FingerprintUdio},
		{ID: RuleContrastUniform, Label: "Unusually uniform spectral contrast", Metric: MetricContrastStd,
			Op: CompareBelow, Threshold: 2.0, Direction: DirectionAI, Weight: 0.3},
		{ID: RuleZCRStable, Label: "Unusually stable zero-crossing rate", Metric: MetricZCRStd,
			Op: CompareBelow, Threshold: 0.01, Direction: DirectionAI, Weight: 0.2},
		{ID: RuleLoopRepetition, Label: "Loop-like structural repetition", Metric: MetricRecurrence,
			Op: CompareAbove, Threshold: 0.4, Direction: DirectionAI, Weight: 0.3},
		{ID: RuleContinuousVocals, Label: "Unnaturally continuous vocals", Metric: MetricVocalActive,
			Op: CompareAbove, Threshold: 0.95, Direction: DirectionAI, Weight: 0.3},
		{ID: RuleNaturalBreathing, Label: "Audible breaths between phrases", Metric: MetricBreathRate,
			Op: CompareAbove, Threshold: 4, Direction: DirectionHuman, Weight: 0.2},
	}}
}

// DefaultGenreProfiles returns the built-in genre calibration profiles.
func DefaultGenreProfiles() map[string]GenreProfile {
	return map[string]GenreProfile{
		"solo_piano": {
			Name:        "solo_piano",
			Description: "Rubato playing, wide tempo tolerance",
			ThresholdDeltas: map[string]float64{
				RuleTempoQuantization: -0.005,
				RuleTempoStability:    0.03,
			},
		},
		"electronic": {
			Name:        "electronic",
			Description: "Sequenced rhythm and narrow stereo are expected",
			WeightScales: map[string]float64{
				RuleTempoQuantization: 0.3,
				RuleStereoCollapsed:   0.5,
			},
		},
		"lofi": {
			Name:        "lofi",
			Description: "Deliberately band-limited production",
			ThresholdDeltas: map[string]float64{
				RuleSpectralCutoff: -4000,
			},
			WeightScales: map[string]float64{
				RuleSpectralCutoff: 0.7,
			},
		},
	}
}

// DefaultCalibration returns the built-in table and genre profiles.
func DefaultCalibration() Calibration {
	return Calibration{
		Thresholds: DefaultThresholdTable(),
		Genres:     DefaultGenreProfiles(),
	}
}
