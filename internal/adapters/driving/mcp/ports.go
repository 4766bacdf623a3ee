package mcp

import (
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Analysis runs the detection pipeline.
	Analysis driving.AnalysisService

	// History exposes stored verdicts. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	return nil
}
