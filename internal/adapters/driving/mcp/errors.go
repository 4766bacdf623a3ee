// Package mcp provides an MCP (Model Context Protocol) server adapter for musictruth.
// It lets AI assistants analyse recordings and read stored verdicts.
package mcp

import "errors"

// ErrMissingAnalysisService is returned when the analysis service is not provided.
var ErrMissingAnalysisService = errors.New("mcp: analysis service is required")
