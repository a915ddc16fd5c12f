package cli

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/brand"
	"github.com/ppiankov/geoscore/internal/cache"
	"github.com/ppiankov/geoscore/internal/extract"
	"github.com/ppiankov/geoscore/internal/llm"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/nlp"
	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/score"
	"github.com/ppiankov/geoscore/internal/server"
	"github.com/ppiankov/geoscore/internal/util"
	"github.com/ppiankov/geoscore/internal/worker"
)

// app holds the components every command shares
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	toolkit  nlp.Toolkit
	scorer   *score.Scorer
	docs     server.Scorer // *score.Scorer, or *score.CachedScorer when caching
	cache    cache.Cache
	limiter  *worker.Limiter
	provider llm.Provider
}

// newApp resolves configuration and builds the scorer, cache, limiter and
// optional LLM provider. logger may be nil to use the CLI logger.
func newApp(logger *zap.Logger) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cfg, logger)
}

func newAppWithConfig(cfg *model.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		l, err := util.NewLogger(cfg.Output.Verbose)
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		logger = l
	}

	toolkit, err := nlp.NewEnglish()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		toolkit: toolkit,
		scorer:  score.NewScorer(extract.NewSegmenter(toolkit), logger),
		limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
	}

	a.docs = a.scorer
	if cfg.Cache.Enabled {
		a.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.MaxEntries, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		a.docs = score.NewCachedScorer(a.scorer, a.cache, cfg.Cache.DiskTTL)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("configure LLM: %w", err)
	}
	a.provider = provider

	return a, nil
}

// fetcher builds the URL fetcher with robots.txt, rate limiting and the
// page cache wired in
func (a *app) fetcher() *pipeline.Fetcher {
	h := a.cfg.HTTP
	f := pipeline.NewFetcher(h.Timeout, h.UserAgent, h.MaxBodyBytes, h.InsecureTLS, h.HTTPProxy, h.HTTPSProxy, h.NoProxy).
		WithLimiter(a.limiter).
		WithLogger(a.logger)

	if h.RespectRobots {
		f.WithRobots(util.NewRobotsChecker(f.Client(), h.UserAgent, a.logger))
	}
	if a.cache != nil {
		f.WithCache(a.cache, a.cfg.Cache.MemoryTTL)
	}
	return f
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.NewPipeline(a.cfg, a.docs, a.fetcher(), a.logger)
}

// comparer returns nil when no LLM provider is configured
func (a *app) comparer() *pipeline.Comparer {
	if a.provider == nil {
		return nil
	}
	return pipeline.NewComparer(a.provider, a.docs, a.limiter, a.cfg.Concurrency.Workers, a.logger)
}

// brandAnalyzer checks the configured risk keywords plus extra
func (a *app) brandAnalyzer(extra []string) *brand.Analyzer {
	return brand.NewAnalyzer(a.provider, a.toolkit, append(append([]string{}, a.cfg.Brand.RiskKeywords...), extra...), a.logger)
}

func (a *app) requireLLM() error {
	if a.provider == nil {
		return fmt.Errorf("no LLM provider configured (set --llm-provider, llm.provider in the config file, or GEOSCORE_LLM_PROVIDER)")
	}
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
