package score

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/geoscore/internal/cache"
	"github.com/ppiankov/geoscore/internal/model"
	"go.uber.org/zap"
)

// CachedScorer memoizes ScoreDocument on the exact inputs
type CachedScorer struct {
	*Scorer
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedScorer wraps a scorer with a cache. A zero ttl uses the cache's
// own default.
func NewCachedScorer(s *Scorer, c cache.Cache, ttl time.Duration) *CachedScorer {
	return &CachedScorer{Scorer: s, cache: c, ttl: ttl}
}

// ScoreDocument returns a cached report when one exists for the same
// text, query, n and normalize flag
func (c *CachedScorer) ScoreDocument(text, query string, n int, normalize bool) (*model.ScoreReport, error) {
	key := cache.ScoreKey(text, query, n, normalize)

	if data, ok := c.cache.Get(key); ok {
		var report model.ScoreReport
		if err := json.Unmarshal(data, &report); err == nil {
			return &report, nil
		}
		c.logger.Warn("discarding unreadable cached report", zap.String("key", key))
	}

	report, err := c.Scorer.ScoreDocument(text, query, n, normalize)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(report); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			c.logger.Warn("failed to cache report", zap.Error(err))
		}
	}

	return report, nil
}
