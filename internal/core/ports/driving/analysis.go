package driving

import (
	"context"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// AnalysisRequest carries per-run overrides of the configured settings.
type AnalysisRequest struct {
	// Mode overrides the configured analysis mode when set.
	Mode domain.AnalysisMode

	// Genre overrides the configured calibration profile when set.
	Genre string

	// SkipAgents disables the language model pipeline for this run.
	SkipAgents bool

	// Metadata describes the recording for the Researcher role.
	// For groups, it applies to every member.
	Metadata domain.Metadata
}

// ExtractorInfo describes a registered extractor for listing.
type ExtractorInfo struct {
	Name         string
	Index        int
	Requirements domain.Requirements
	Metrics      []domain.MetricSpec
	Modes        []domain.AnalysisMode
}

// AnalysisService runs the analysis-and-verdict pipeline.
type AnalysisService interface {
	// AnalyzeUnit produces a verdict for one unit.
	// Fails with domain.ErrInsufficientEvidence when the evidence is too thin.
	AnalyzeUnit(ctx context.Context, unit domain.AudioUnit, req AnalysisRequest) (*domain.Verdict, error)

	// AnalyzeGroup produces a group verdict for related units (album, file and
	// URL variants). Units that cannot be scored are recorded as skipped.
	AnalyzeGroup(ctx context.Context, groupID string, units []domain.AudioUnit, req AnalysisRequest) (*domain.Verdict, error)

	// AnalyzeFile decodes the file and analyses it as one unit.
	AnalyzeFile(ctx context.Context, path string, req AnalysisRequest) (*domain.Verdict, error)

	// AnalyzeFiles decodes each file and analyses them as one group.
	AnalyzeFiles(ctx context.Context, groupID string, paths []string, req AnalysisRequest) (*domain.Verdict, error)

	// Extractors lists the registered extractors and the modes that select them.
	Extractors() []ExtractorInfo
}
