// Package server provides the HTTP API for geoscore.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/brand"
	"github.com/ppiankov/geoscore/internal/llm"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/score"
)

// RequestIDHeader carries the per-request ID
const RequestIDHeader = "X-Request-ID"

// Scorer is the scoring surface the API exposes
type Scorer interface {
	ScoreDocument(text, query string, n int, normalize bool) (*model.ScoreReport, error)
	ComputeScores(text, query string, n int, normalize bool, mode score.Mode) (map[string]float64, error)
	CitationScores(text string, n int) ([]float64, error)
}

// Server is the HTTP server for the geoscore API
type Server struct {
	scorer   Scorer
	comparer *pipeline.Comparer
	provider llm.Provider
	brand    *brand.Analyzer
	config   *model.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server. provider and comparer may be nil when no LLM
// is configured.
func NewServer(scorer Scorer, provider llm.Provider, comparer *pipeline.Comparer, cfg *model.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		scorer:   scorer,
		comparer: comparer,
		provider: provider,
		config:   cfg,
		logger:   logger,
	}
}

// WithBrand enables the brand endpoint
func (s *Server) WithBrand(a *brand.Analyzer) *Server {
	s.brand = a
	return s
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/citation-scores", s.handleCitationScores)
		r.Post("/treatments/{method}", s.handleTreatment)
		r.Post("/queries", s.handleQueries)
		r.Post("/answer", s.handleAnswer)
		r.Post("/brand", s.handleBrand)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type ctxKey struct{}

// requestID reuses a caller-supplied X-Request-ID or mints a UUID
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the request ID stored by the middleware
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(started)))
	})
}
