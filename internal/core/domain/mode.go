package domain

// AnalysisMode governs which extractors run and how complete the evidence must be.
type AnalysisMode string

// Available analysis modes, cheapest first.
const (
	ModeQuick    AnalysisMode = "quick"
	ModeStandard AnalysisMode = "standard"
	ModeDeep     AnalysisMode = "deep"
	ModeForensic AnalysisMode = "forensic"
)

// IsValid returns true if the analysis mode is recognised.
func (m AnalysisMode) IsValid() bool {
	switch m {
	case ModeQuick, ModeStandard, ModeDeep, ModeForensic:
		return true
	default:
		return false
	}
}

// Rank orders modes by thoroughness. Unknown modes rank -1.
func (m AnalysisMode) Rank() int {
	switch m {
	case ModeQuick:
		return 0
	case ModeStandard:
		return 1
	case ModeDeep:
		return 2
	case ModeForensic:
		return 3
	default:
		return -1
	}
}

// String returns the string representation.
func (m AnalysisMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m AnalysisMode) Description() string {
	switch m {
	case ModeQuick:
		return "Quick (spectral cutoff + tempo)"
	case ModeStandard:
		return "Standard (adds peaks, stereo, silence)"
	case ModeDeep:
		return "Deep (adds vocal forensics + provider fingerprints)"
	case ModeForensic:
		return "Forensic (adds texture, harmonic balance, structure + breath analysis; strictest floor)"
	default:
		return unknownDescription
	}
}

// AllAnalysisModes returns all modes, cheapest first.
func AllAnalysisModes() []AnalysisMode {
	return []AnalysisMode{ModeQuick, ModeStandard, ModeDeep, ModeForensic}
}

// ModeProfile describes what a mode runs and what it demands.
type ModeProfile struct {
	// Extractors lists extractor names the mode selects.
	Extractors []string

	// CompletenessFloor is the minimum valid/expected metric ratio.
	CompletenessFloor float64

	// MinExtractors is the number of selected extractors the registry must provide.
	MinExtractors int

	// MinValid is the number of extractors that must return a valid result.
	MinValid int
}

// Extractor names shared between the registry and mode profiles.
const (
	ExtractorSpectralCutoff   = "spectral_cutoff"
	ExtractorSpectralPeaks    = "spectral_peaks"
	ExtractorTempoStability   = "tempo_stability"
	ExtractorStereoPhase      = "stereo_phase"
	ExtractorVocalPitch       = "vocal_pitch"
	ExtractorSilenceEntropy   = "silence_entropy"
	ExtractorFingerprintSuno  = "fingerprint_suno"
	ExtractorFingerprintUdio  = "fingerprint_udio"
	ExtractorSpectralContrast = "spectral_contrast"
	ExtractorZeroCrossing     = "zero_crossing"
	ExtractorHarmonicBalance  = "harmonic_balance"
	ExtractorStructure        = "structure_repetition"
	ExtractorVocalBreath      = "vocal_breath"
)

// DefaultModeProfiles returns the built-in mode profiles.
func DefaultModeProfiles() map[AnalysisMode]ModeProfile {
	quick := []string{ExtractorSpectralCutoff, ExtractorTempoStability}
	standard := append(append([]string{}, quick...),
		ExtractorSpectralPeaks, ExtractorStereoPhase, ExtractorSilenceEntropy)
	deep := append(append([]string{}, standard...),
		ExtractorVocalPitch, ExtractorFingerprintSuno, ExtractorFingerprintUdio)
	forensic := append(append([]string{}, deep...),
		ExtractorSpectralContrast, ExtractorZeroCrossing, ExtractorHarmonicBalance,
		ExtractorStructure, ExtractorVocalBreath)

	return map[AnalysisMode]ModeProfile{
		ModeQuick:    {Extractors: quick, CompletenessFloor: 0.5, MinExtractors: 2, MinValid: 1},
		ModeStandard: {Extractors: standard, CompletenessFloor: 0.6, MinExtractors: 5, MinValid: 3},
		ModeDeep:     {Extractors: deep, CompletenessFloor: 0.7, MinExtractors: 8, MinValid: 5},
		ModeForensic: {Extractors: forensic, CompletenessFloor: 0.85, MinExtractors: 13, MinValid: 9},
	}
}
