package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

const (
	uriScheme = "musictruth://"

	// resourceListLimit caps the verdict listing resource.
	resourceListLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "verdicts",
		Name:        "verdicts",
		Description: "Recent verdicts, newest first",
		MIMEType:    "application/json",
	}, s.handleVerdictsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "verdicts/{verdictId}",
		Name:        "verdict",
		Description: "A stored verdict with its evidence and report",
		MIMEType:    "application/json",
	}, s.handleVerdictResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "extractors",
		Name:        "extractors",
		Description: "Registered feature extractors and the modes that run them",
		MIMEType:    "application/json",
	}, s.handleExtractorsResource)
}

func (s *Server) handleVerdictsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResult(req.Params.URI, []domain.VerdictSummary{})
	}

	summaries, err := s.ports.History.List(ctx, resourceListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing verdicts: %w", err)
	}
	if summaries == nil {
		summaries = []domain.VerdictSummary{}
	}
	return jsonResult(req.Params.URI, summaries)
}

func (s *Server) handleVerdictResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractVerdictID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	verdict, err := s.ports.History.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting verdict: %w", err)
	}
	return jsonResult(req.Params.URI, verdict)
}

func (s *Server) handleExtractorsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResult(req.Params.URI, s.ports.Analysis.Extractors())
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractVerdictID extracts the ID from a URI like musictruth://verdicts/{verdictId}.
func extractVerdictID(uri string) string {
	const prefix = uriScheme + "verdicts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
