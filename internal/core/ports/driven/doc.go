// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FeatureExtractor: Analyses one audio unit into a FeatureResult
//   - ExtractorRegistry: Selects the extractors an analysis mode runs
//   - AudioDecoder: Turns a file into a normalised sample buffer
//   - ConfigStore: Application configuration
//   - CalibrationStore: Threshold tables and genre profiles
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - StemSeparator: Source separation. Without it, stem extractors fail individually.
//   - Classifier: Pretrained model. Without it, the ensemble renormalises over heuristics.
//   - LLMService: Language model calls. Without it, agent roles fall back to templates.
//   - PromptStore: Customisable prompts. Without it, embedded defaults are used.
//   - VerdictStore: Verdict history. Without it, verdicts are not persisted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
