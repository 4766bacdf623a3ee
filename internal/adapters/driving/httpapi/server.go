// Package httpapi exposes the analysis pipeline and verdict history over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /extractors
//	POST /analyze
//	GET  /verdicts
//	GET  /verdicts/{id}
//	DELETE /verdicts/{id}
package httpapi

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driving"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
)

// ErrMissingAnalysisService is returned when the analysis service is not provided.
var ErrMissingAnalysisService = errors.New("httpapi: analysis service is required")

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string

	// RequestTimeout bounds each request, including analysis. Zero disables it.
	RequestTimeout time.Duration

	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
}

// Server is a thin wrapper over chi and the stdlib http.Server.
type Server struct {
	analysis driving.AnalysisService
	history  driving.HistoryService
	mux      *chi.Mux
	srv      *stdhttp.Server
}

// NewServer creates a server with all routes mounted.
// history is optional; verdict routes answer 503 without it.
func NewServer(cfg Config, analysis driving.AnalysisService, history driving.HistoryService) (*Server, error) {
	if analysis == nil {
		return nil, ErrMissingAnalysisService
	}

	s := &Server{
		analysis: analysis,
		history:  history,
		mux:      chi.NewRouter(),
	}
	s.routes(cfg)
	s.srv = &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(cfg Config) {
	s.mux.Use(chimw.RequestID)
	s.mux.Use(chimw.RealIP)
	s.mux.Use(chimw.Recoverer)
	s.mux.Use(chimw.Heartbeat("/healthz"))
	if cfg.RequestTimeout > 0 {
		s.mux.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	if cfg.Registry != nil {
		s.mux.Method(stdhttp.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	s.mux.Get("/extractors", s.handleExtractors)
	s.mux.With(chimw.AllowContentType("application/json")).Post("/analyze", s.handleAnalyze)
	s.mux.Route("/verdicts", func(r chi.Router) {
		r.Get("/", s.handleListVerdicts)
		r.Get("/{id}", s.handleGetVerdict)
		r.Delete("/{id}", s.handleDeleteVerdict)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() stdhttp.Handler { return s.mux }

// Addr returns the listening address.
func (s *Server) Addr() string { return s.srv.Addr }

// Run starts the server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	log.Info().Str("addr", s.srv.Addr).Msg("http listening")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := s.srv.ListenAndServe()
	if errors.Is(err, stdhttp.ErrServerClosed) {
		return nil
	}
	return err
}
