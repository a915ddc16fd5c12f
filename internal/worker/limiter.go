package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/geoscore/internal/metrics"
)

// llmKeyPrefix marks limiter keys that belong to LLM providers
const llmKeyPrefix = "llm:"

// Limiter hands out one token bucket per key. Page fetches are keyed by
// host, LLM calls by "llm:<provider>".
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// LLMKey is the limiter key for a provider
func LLMKey(provider string) string {
	return llmKeyPrefix + provider
}

// Wait blocks until target's bucket has a token or ctx ends
func (l *Limiter) Wait(ctx context.Context, target string) error {
	key := keyFor(target)
	started := time.Now()
	err := l.bucket(key).Wait(ctx)
	if waited := time.Since(started); err == nil && waited > time.Millisecond {
		metrics.RecordRateLimitWait(targetKind(key), waited)
	}
	return err
}

// Allow takes a token for target if one is available right now
func (l *Limiter) Allow(target string) bool {
	return l.bucket(keyFor(target)).Allow()
}

// SetRate replaces the bucket for one target, e.g. to honour a robots.txt
// crawl delay. A non-positive burst keeps the default.
func (l *Limiter) SetRate(target string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.burst
	}
	l.mu.Lock()
	l.buckets[keyFor(target)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	l.mu.Unlock()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// keyFor maps a URL to its lower-cased hostname. Anything that is not an
// absolute URL is used as the key itself.
func keyFor(target string) string {
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		return strings.ToLower(u.Hostname())
	}
	return strings.ToLower(strings.TrimSpace(target))
}

func targetKind(key string) string {
	if strings.HasPrefix(key, llmKeyPrefix) {
		return "llm"
	}
	return "host"
}
