package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/brand"
	"github.com/ppiankov/geoscore/internal/extract"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/research"
	"github.com/ppiankov/geoscore/internal/score"
	"github.com/ppiankov/geoscore/internal/treatment"
)

type scoreRequest struct {
	Text      string `json:"text"`
	Query     string `json:"query,omitempty"`
	N         int    `json:"n,omitempty"`
	Normalize *bool  `json:"normalize,omitempty"`
	Mode      string `json:"mode,omitempty"`
	// Format is "text" (default) or "html"; HTML is reduced to its visible text
	Format string `json:"format,omitempty"`
}

type scoresResponse struct {
	Mode   string             `json:"mode"`
	Scores map[string]float64 `json:"scores"`
}

type citationScoresResponse struct {
	Scores []float64 `json:"scores"`
}

type treatmentRequest struct {
	Content string `json:"content"`
	Query   string `json:"query,omitempty"`
	N       int    `json:"n,omitempty"`
}

type treatmentResponse struct {
	Method string                 `json:"method"`
	Prompt string                 `json:"prompt"`
	Result *model.TreatmentResult `json:"result,omitempty"`
}

type queriesRequest struct {
	Topic string `json:"topic"`
}

type queriesResponse struct {
	Topic    string             `json:"topic"`
	Queries  []research.Insight `json:"queries"`
	Fallback bool               `json:"fallback"`
}

type answerRequest struct {
	Query     string   `json:"query"`
	Sources   []string `json:"sources"`
	Normalize *bool    `json:"normalize,omitempty"`
}

type answerResponse struct {
	Answer     *research.Answer   `json:"answer"`
	Scores     map[string]float64 `json:"scores"`
	Visibility []float64          `json:"visibility"`
}

type brandRequest struct {
	Brand        string   `json:"brand"`
	RiskKeywords []string `json:"risk_keywords,omitempty"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.prepareText(w, &req) {
		return
	}

	n, normalize := s.scoringDefaults(req.N, req.Normalize)
	mode := score.ModeAll
	if req.Mode != "" {
		m, err := score.ParseMode(req.Mode)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}

	if mode == score.ModeAll {
		report, err := s.scorer.ScoreDocument(req.Text, req.Query, n, normalize)
		if err != nil {
			s.respondScoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, report)
		return
	}

	scores, err := s.scorer.ComputeScores(req.Text, req.Query, n, normalize, mode)
	if err != nil {
		s.respondScoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, scoresResponse{Mode: mode.String(), Scores: scores})
}

func (s *Server) handleCitationScores(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.prepareText(w, &req) {
		return
	}

	n, _ := s.scoringDefaults(req.N, nil)
	scores, err := s.scorer.CitationScores(req.Text, n)
	if err != nil {
		s.respondScoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, citationScoresResponse{Scores: scores})
}

func (s *Server) handleTreatment(w http.ResponseWriter, r *http.Request) {
	method, err := treatment.ParseMethod(chi.URLParam(r, "method"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req treatmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkText(w, req.Content) {
		return
	}

	prompt, err := treatment.BuildPrompt(method, req.Content)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := treatmentResponse{Method: method.String(), Prompt: prompt}

	if s.comparer != nil {
		n, normalize := s.scoringDefaults(req.N, nil)
		original, err := s.scorer.ScoreDocument(req.Content, req.Query, n, normalize)
		if err != nil {
			s.respondScoreError(w, err)
			return
		}

		results, err := s.comparer.CompareTreatments(r.Context(), original, req.Content, []treatment.Method{method})
		if err != nil {
			s.logger.Error("treatment comparison failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		resp.Result = &results[0]
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	var req queriesRequest
	if !s.decode(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		s.respondError(w, http.StatusBadRequest, "topic is required")
		return
	}

	queries, err := research.RelatedQueries(r.Context(), s.provider, topic)
	if err != nil {
		s.logger.Warn("related queries fell back to templates", zap.String("topic", topic), zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, queriesResponse{
		Topic:    topic,
		Queries:  research.Classify(queries),
		Fallback: err != nil,
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, research.ErrEmptyQuery.Error())
		return
	}
	n := len(req.Sources)
	if err := score.CheckBuckets(n); err != nil {
		s.respondError(w, http.StatusBadRequest, "sources: "+err.Error())
		return
	}
	if !s.checkText(w, strings.Join(req.Sources, "\n\n")) {
		return
	}
	if s.provider == nil {
		s.respondError(w, http.StatusServiceUnavailable, research.ErrNoProvider.Error())
		return
	}

	answer, err := research.GenerateAnswer(r.Context(), s.provider, req.Query, req.Sources)
	if err != nil {
		s.logger.Error("answer generation failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	_, normalize := s.scoringDefaults(n, req.Normalize)
	scores, err := s.scorer.ComputeScores(answer.Text, answer.Query, n, normalize, score.ModeCitation)
	if err != nil {
		s.respondScoreError(w, err)
		return
	}
	visibility, err := s.scorer.CitationScores(answer.Text, n)
	if err != nil {
		s.respondScoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, answerResponse{Answer: answer, Scores: scores, Visibility: visibility})
}

func (s *Server) handleBrand(w http.ResponseWriter, r *http.Request) {
	var req brandRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Brand) == "" {
		s.respondError(w, http.StatusBadRequest, brand.ErrEmptyBrand.Error())
		return
	}
	if s.brand == nil || s.provider == nil {
		s.respondError(w, http.StatusServiceUnavailable, brand.ErrNoProvider.Error())
		return
	}

	report, err := s.brand.WithKeywords(req.RiskKeywords).Analyze(r.Context(), req.Brand)
	if err != nil {
		s.logger.Error("brand analysis failed", zap.String("brand", req.Brand), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	llmStatus := "disabled"
	if s.provider != nil {
		llmStatus = s.provider.Name()
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "llm": llmStatus})
}

// decode reads a JSON body capped to what MaxInputChars can need
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	limit := int64(s.config.Scoring.MaxInputChars)*utf8.UTFMax + 4096
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusBadRequest, pipeline.ErrInputTooLarge.Error())
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// prepareText converts HTML input to text and applies the input guards
func (s *Server) prepareText(w http.ResponseWriter, req *scoreRequest) bool {
	switch strings.ToLower(req.Format) {
	case "", "text":
	case "html":
		text, err := extract.HTMLToText(req.Text)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return false
		}
		req.Text = text
	default:
		s.respondError(w, http.StatusBadRequest, "unknown format "+req.Format+" (want text or html)")
		return false
	}
	return s.checkText(w, req.Text)
}

func (s *Server) checkText(w http.ResponseWriter, text string) bool {
	if err := pipeline.CheckInput(text, s.config.Scoring.MaxInputChars); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) scoringDefaults(n int, normalize *bool) (int, bool) {
	if n == 0 {
		n = s.config.Scoring.Buckets
	}
	norm := s.config.Scoring.Normalize
	if normalize != nil {
		norm = *normalize
	}
	return n, norm
}

func (s *Server) respondScoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, score.ErrInvalidBuckets) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("scoring failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
