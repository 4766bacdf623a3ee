// Package domain defines the core business entities for MusicTruth.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - AudioUnit: One analysable recording and its borrowed sample buffer
//   - FeatureResult: The output of one extractor for one unit
//   - EvidenceVector: Merged metrics for one unit with provenance
//   - ConfidenceScore: The ensemble's AI-generation estimate and reasons
//   - ConsistencyFinding: A group member deviating from its group
//   - AgentMessage: One language model attempt for one agent role
//   - Verdict: The terminal artefact handed to reporting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
