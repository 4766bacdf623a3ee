package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
)

const defaultListLimit = 20

// AnalyzeRequest is the body of POST /analyze.
// Exactly one of Path and Paths is set; Paths produces a group verdict.
type AnalyzeRequest struct {
	Path       string          `json:"path,omitempty" validate:"required_without=Paths,excluded_with=Paths,max=4096"`
	Paths      []string        `json:"paths,omitempty" validate:"omitempty,min=1,max=512,dive,required,max=4096"`
	GroupID    string          `json:"group_id,omitempty" validate:"omitempty,max=256"`
	Mode       string          `json:"mode,omitempty" validate:"omitempty,oneof=quick standard deep forensic"`
	Genre      string          `json:"genre,omitempty" validate:"omitempty,max=64"`
	SkipAgents bool            `json:"skip_agents,omitempty"`
	Metadata   domain.Metadata `json:"metadata"`
}

type errorBody struct {
	Error string `json:"error"`
}

var errHistoryUnavailable = errors.New("verdict history is not configured")

func (s *Server) handleExtractors(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
	writeJSON(w, stdhttp.StatusOK, s.analysis.Extractors())
}

func (s *Server) handleAnalyze(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	body, err := bindJSON[AnalyzeRequest](w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	req := driving.AnalysisRequest{
		Mode:       domain.AnalysisMode(body.Mode),
		Genre:      body.Genre,
		SkipAgents: body.SkipAgents,
		Metadata:   body.Metadata,
	}

	var verdict *domain.Verdict
	if body.Path != "" {
		verdict, err = s.analysis.AnalyzeFile(r.Context(), body.Path, req)
	} else {
		groupID := body.GroupID
		if groupID == "" {
			groupID = "group"
		}
		verdict, err = s.analysis.AnalyzeFiles(r.Context(), groupID, body.Paths, req)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, verdict)
}

func (s *Server) handleListVerdicts(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if s.history == nil {
		writeError(w, errHistoryUnavailable)
		return
	}

	var (
		summaries []domain.VerdictSummary
		err       error
	)
	if subject := r.URL.Query().Get("subject"); subject != "" {
		summaries, err = s.history.ListBySubject(r.Context(), subject)
	} else {
		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				writeError(w, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidInput))
				return
			}
		}
		summaries, err = s.history.List(r.Context(), limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.VerdictSummary{}
	}
	writeJSON(w, stdhttp.StatusOK, summaries)
}

func (s *Server) handleGetVerdict(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if s.history == nil {
		writeError(w, errHistoryUnavailable)
		return
	}
	verdict, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, verdict)
}

func (s *Server) handleDeleteVerdict(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if s.history == nil {
		writeError(w, errHistoryUnavailable)
		return
	}
	if err := s.history.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(stdhttp.StatusNoContent)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return stdhttp.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return stdhttp.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return stdhttp.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInsufficientEvidence):
		return stdhttp.StatusUnprocessableEntity
	case errors.Is(err, errHistoryUnavailable):
		return stdhttp.StatusServiceUnavailable
	default:
		return stdhttp.StatusInternalServerError
	}
}

func writeError(w stdhttp.ResponseWriter, err error) {
	status := statusFor(err)
	if status == stdhttp.StatusInternalServerError {
		log := logger.Named("http")
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
