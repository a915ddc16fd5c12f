package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	maxRobotsBytes = 512 << 10
	robotsTTL      = 24 * time.Hour
)

// RobotsChecker answers robots.txt questions for outbound fetches. Rules
// are kept per origin for a day and concurrent lookups of the same origin
// share one request.
type RobotsChecker struct {
	rules      *gocache.Cache
	inflight   singleflight.Group
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewRobotsChecker creates a checker that fetches with client
func NewRobotsChecker(client *http.Client, userAgent string, logger *zap.Logger) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RobotsChecker{
		rules:      gocache.New(robotsTTL, time.Hour),
		httpClient: client,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// CanFetch reports whether the user agent may fetch rawURL, and the crawl
// delay requested for it. An unreachable robots.txt allows the fetch.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return false, 0, fmt.Errorf("parse URL: %q is not absolute", rawURL)
	}

	origin := u.Scheme + "://" + u.Host
	data, err := r.lookup(ctx, origin)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing fetch", zap.String("origin", origin), zap.Error(err))
		return true, 0, nil
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	var delay time.Duration
	if group := data.FindGroup(r.userAgent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(target, r.userAgent), delay, nil
}

func (r *RobotsChecker) lookup(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	if cached, ok := r.rules.Get(origin); ok {
		return cached.(*robotstxt.RobotsData), nil
	}

	v, err, _ := r.inflight.Do(origin, func() (interface{}, error) {
		if cached, ok := r.rules.Get(origin); ok {
			return cached, nil
		}
		data, err := r.download(ctx, origin)
		if err != nil {
			return nil, err
		}
		r.rules.SetDefault(origin, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*robotstxt.RobotsData), nil
}

func (r *RobotsChecker) download(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	r.logger.Debug("loaded robots.txt", zap.String("origin", origin), zap.Int("status", resp.StatusCode))
	return data, nil
}

// Clear forgets every cached ruleset
func (r *RobotsChecker) Clear() {
	r.rules.Flush()
}
