package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates an audio container or encoding that cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Analysis Errors.

	// ErrExtractionFailure indicates a single extractor could not produce metrics.
	// It is recorded as an invalid FeatureResult and never aborts a run.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrInsufficientEvidence indicates the evidence completeness fell below
	// the active analysis mode's floor.
	ErrInsufficientEvidence = errors.New("insufficient evidence")

	// ErrClassifierUnavailable indicates the pretrained classifier is absent
	// or failed to load. The ensemble renormalises over the remaining sources.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrSeparationUnavailable indicates a requested stem could not be produced.
	ErrSeparationUnavailable = errors.New("source separation unavailable")

	// ErrGroupIncomplete indicates a group barrier timed out before every
	// member finished aggregation.
	ErrGroupIncomplete = errors.New("group incomplete")

	// ErrInvalidMode indicates an unknown analysis mode or a mode whose
	// extractor set cannot be satisfied by the registry.
	ErrInvalidMode = errors.New("invalid analysis mode")

	// ErrDuplicateMetric indicates two extractors declare the same metric name.
	ErrDuplicateMetric = errors.New("duplicate metric")

	// Provider Errors.

	// ErrProviderFailure indicates a language model call failed.
	// The orchestrator retries, fails over, and finally degrades the role.
	ErrProviderFailure = errors.New("provider failure")

	// ErrLLMUnavailable indicates no language model provider is configured or reachable.
	// Agent roles fall back to deterministic templates.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
