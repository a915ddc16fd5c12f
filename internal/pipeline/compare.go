package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/geoscore/internal/llm"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/score"
	"github.com/ppiankov/geoscore/internal/treatment"
	"github.com/ppiankov/geoscore/internal/worker"
)

// Comparer rewrites a text with each treatment and scores the rewrites
// against the original
type Comparer struct {
	provider llm.Provider
	scorer   DocumentScorer
	limiter  *worker.Limiter
	workers  int
	logger   *zap.Logger
}

// NewComparer creates a comparer. limiter may be nil.
func NewComparer(provider llm.Provider, scorer DocumentScorer, limiter *worker.Limiter, workers int, logger *zap.Logger) *Comparer {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparer{
		provider: provider,
		scorer:   scorer,
		limiter:  limiter,
		workers:  workers,
		logger:   logger,
	}
}

// CompareTreatments applies each method concurrently to the original text,
// scores every rewrite with the original's query and buckets, and returns
// one result per method in the order given. A failed rewrite is recorded in
// its result's Error; only cancellation of ctx fails the whole call.
func (c *Comparer) CompareTreatments(ctx context.Context, original *model.ScoreReport, text string, methods []treatment.Method) ([]model.TreatmentResult, error) {
	results := make([]model.TreatmentResult, len(methods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, method := range methods {
		i, method := i, method
		g.Go(func() error {
			results[i] = c.compareOne(gctx, original, text, method)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Comparer) compareOne(ctx context.Context, original *model.ScoreReport, text string, method treatment.Method) model.TreatmentResult {
	result := model.TreatmentResult{Method: method.String()}
	if c.provider != nil {
		result.Provider = c.provider.Name()
	}

	if c.limiter != nil && c.provider != nil {
		if err := c.limiter.Wait(ctx, worker.LLMKey(c.provider.Name())); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	rewrite, err := treatment.Apply(ctx, c.provider, method, text)
	if err != nil {
		c.logger.Warn("treatment failed", zap.String("method", method.String()), zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.Model = rewrite.Model
	result.Content = rewrite.Content

	treated, err := c.scorer.ScoreDocument(rewrite.Content, original.Query, original.Buckets, original.Normalize)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Summary = treated.Summary
	result.Delta = SummaryDelta(original.Summary, treated.Summary)

	c.logger.Debug("treatment scored",
		zap.String("method", method.String()),
		zap.Int("tokens", rewrite.TokensUsed))

	return result
}

// SummaryDelta returns treated minus original for every key present in
// both summaries, rounded to two decimals
func SummaryDelta(original, treated map[string]float64) map[string]float64 {
	delta := make(map[string]float64, len(treated))
	for k, after := range treated {
		if before, ok := original[k]; ok {
			delta[k] = score.Round2(after - before)
		}
	}
	return delta
}
