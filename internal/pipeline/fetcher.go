package pipeline

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/cache"
	"github.com/ppiankov/geoscore/internal/util"
	"github.com/ppiankov/geoscore/internal/worker"
)

// ErrDisallowedByRobots is returned when robots.txt forbids a fetch
var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

const fetchAttempts = 3

// fetchSleepFunc is swapped out by tests
var fetchSleepFunc = time.Sleep

// Fetcher fetches HTML content from URLs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	robots   *util.RobotsChecker
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger

	delayed sync.Map // hosts whose crawl delay has been applied
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
	}
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		logger:    zap.NewNop(),
	}
}

// Client returns the fetcher's HTTP client, shared with the robots checker
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// WithRobots enables robots.txt checks
func (f *Fetcher) WithRobots(checker *util.RobotsChecker) *Fetcher {
	f.robots = checker
	return f
}

// WithLimiter throttles fetches per host
func (f *Fetcher) WithLimiter(limiter *worker.Limiter) *Fetcher {
	f.limiter = limiter
	return f
}

// WithCache memoizes successful fetches
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// WithLogger sets the diagnostic logger
func (f *Fetcher) WithLogger(logger *zap.Logger) *Fetcher {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// FetchResult is a fetched page and its response metadata
type FetchResult struct {
	HTML        string `json:"html"`
	ContentType string `json:"content_type"`
	StatusCode  int    `json:"status_code"`
	Subject     string `json:"subject"`
	FinalURL    string `json:"final_url"`
}

// IsPlainText reports whether the page was served as text/plain
func (r *FetchResult) IsPlainText() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	return err == nil && mediaType == "text/plain"
}

// StatusError is a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// ErrUnsupportedContent is returned for responses that are not HTML or text
var ErrUnsupportedContent = errors.New("unsupported content type")

// Fetch performs a single GET and reads at most maxBytes of the body
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	if !readableContent(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		HTML:        string(body),
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
		Subject:     extractSubject(finalURL),
		FinalURL:    finalURL,
	}, nil
}

// readableContent accepts HTML, XHTML and plain text. A missing header is
// given the benefit of the doubt.
func readableContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}

// FetchWithRetry retries transient failures, doubling the backoff each time
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == fetchAttempts || ctx.Err() != nil {
			break
		}

		f.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		fetchSleepFunc(backoff)
		backoff *= 2
	}

	return nil, lastErr
}

// Get fetches a page honouring the cache, robots.txt and the host limiter
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.FetchKey(rawURL)
	if f.cache != nil {
		if data, ok := f.cache.Get(key); ok {
			var cached FetchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowedByRobots, rawURL)
		}
		f.applyCrawlDelay(rawURL, delay)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := f.cache.Set(key, data, f.cacheTTL); err != nil {
				f.logger.Warn("failed to cache page", zap.String("url", rawURL), zap.Error(err))
			}
		}
	}

	return result, nil
}

// applyCrawlDelay slows the host's limiter to the robots.txt crawl delay
func (f *Fetcher) applyCrawlDelay(rawURL string, delay time.Duration) {
	if f.limiter == nil || delay <= 0 {
		return
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	if _, seen := f.delayed.LoadOrStore(parsed.Hostname(), true); seen {
		return
	}
	f.limiter.SetRate(rawURL, 1/delay.Seconds(), 1)
	f.logger.Debug("applied crawl delay", zap.String("host", parsed.Hostname()), zap.Duration("delay", delay))
}

// isRetryableFetchError reports whether err is a 5xx, a 429 or a transport
// failure
func isRetryableFetchError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// extractSubject extracts a human-readable subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	// De-slugify: replace underscores and hyphens with spaces
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
