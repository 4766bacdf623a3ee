package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
)

// AnalyzeInput is the input schema for the analyze_file tool.
type AnalyzeInput struct {
	Path       string `json:"path" jsonschema:"absolute path to the audio file"`
	Mode       string `json:"mode,omitempty" jsonschema:"analysis mode: quick, standard, deep or forensic"`
	Genre      string `json:"genre,omitempty" jsonschema:"calibration profile name"`
	Artist     string `json:"artist,omitempty" jsonschema:"artist name used for context research"`
	Title      string `json:"title,omitempty" jsonschema:"track title"`
	SkipAgents bool   `json:"skip_agents,omitempty" jsonschema:"skip the language model report"`
}

// VerdictOutput is the output schema for tools returning one verdict.
type VerdictOutput struct {
	ID           string   `json:"id"`
	SubjectID    string   `json:"subject_id"`
	Kind         string   `json:"kind"`
	Mode         string   `json:"mode"`
	Score        float64  `json:"score"`
	Label        string   `json:"label"`
	Reasons      []string `json:"reasons"`
	Fingerprints []string `json:"fingerprints,omitempty"`
	Completeness float64  `json:"completeness"`
	Summary      string   `json:"summary"`
	Degraded     []string `json:"degraded,omitempty"`
}

// GetVerdictInput is the input schema for the get_verdict tool.
type GetVerdictInput struct {
	ID string `json:"id" jsonschema:"verdict ID"`
}

// ListVerdictsInput is the input schema for the list_verdicts tool.
type ListVerdictsInput struct {
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of verdicts to return (default 20)"`
	Subject string `json:"subject,omitempty" jsonschema:"only verdicts for this unit or group ID"`
}

// ListVerdictsOutput is the output schema for the list_verdicts tool.
type ListVerdictsOutput struct {
	Verdicts []domain.VerdictSummary `json:"verdicts"`
	Count    int                     `json:"count"`
}

var errHistoryUnavailable = errors.New("verdict history is not configured")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_file",
		Description: "Estimate whether an audio file was generated by an AI music system",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_verdict",
		Description: "Fetch a stored verdict by ID",
	}, s.handleGetVerdict)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_verdicts",
		Description: "List recent verdicts, newest first",
	}, s.handleListVerdicts)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, VerdictOutput, error) {
	if input.Path == "" {
		return nil, VerdictOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	req := driving.AnalysisRequest{
		Genre:      input.Genre,
		SkipAgents: input.SkipAgents,
		Metadata:   domain.Metadata{Artist: input.Artist, Title: input.Title},
	}
	if input.Mode != "" {
		req.Mode = domain.AnalysisMode(input.Mode)
		if !req.Mode.IsValid() {
			return nil, VerdictOutput{}, fmt.Errorf("%w: %s", domain.ErrInvalidMode, input.Mode)
		}
	}

	verdict, err := s.ports.Analysis.AnalyzeFile(ctx, input.Path, req)
	if err != nil {
		return nil, VerdictOutput{}, err
	}
	return nil, toVerdictOutput(verdict), nil
}

func (s *Server) handleGetVerdict(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetVerdictInput,
) (*mcp.CallToolResult, VerdictOutput, error) {
	if s.ports.History == nil {
		return nil, VerdictOutput{}, errHistoryUnavailable
	}
	verdict, err := s.ports.History.Get(ctx, input.ID)
	if err != nil {
		return nil, VerdictOutput{}, err
	}
	return nil, toVerdictOutput(verdict), nil
}

func (s *Server) handleListVerdicts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListVerdictsInput,
) (*mcp.CallToolResult, ListVerdictsOutput, error) {
	if s.ports.History == nil {
		return nil, ListVerdictsOutput{}, errHistoryUnavailable
	}

	var (
		summaries []domain.VerdictSummary
		err       error
	)
	if input.Subject != "" {
		summaries, err = s.ports.History.ListBySubject(ctx, input.Subject)
	} else {
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		summaries, err = s.ports.History.List(ctx, limit)
	}
	if err != nil {
		return nil, ListVerdictsOutput{}, err
	}
	if summaries == nil {
		summaries = []domain.VerdictSummary{}
	}
	return nil, ListVerdictsOutput{Verdicts: summaries, Count: len(summaries)}, nil
}

func toVerdictOutput(v *domain.Verdict) VerdictOutput {
	out := VerdictOutput{
		ID:           v.ID,
		SubjectID:    v.SubjectID,
		Kind:         string(v.Kind),
		Mode:         v.Mode.String(),
		Score:        v.Score.Value,
		Label:        string(v.Score.Label),
		Reasons:      make([]string, 0, len(v.Score.Reasons)),
		Fingerprints: v.Score.Fingerprints,
		Completeness: v.Completeness,
		Summary:      v.Summary,
	}
	for _, r := range v.Score.Reasons {
		out.Reasons = append(out.Reasons, fmt.Sprintf("%s (%s, weight %.2f)", r.Label, r.Direction, r.Weight))
	}
	for _, role := range v.Degraded {
		out.Degraded = append(out.Degraded, string(role))
	}
	return out
}
