package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete geoscore configuration
type Config struct {
	Scoring      ScoringConfig      `yaml:"scoring"`
	HTTP         HTTPConfig         `yaml:"http"`
	Cache        CacheConfig        `yaml:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm"`
	Server       ServerConfig       `yaml:"server"`
	Output       OutputConfig       `yaml:"output"`
	Brand        BrandConfig        `yaml:"brand"`
}

// ScoringConfig controls the scoring core
type ScoringConfig struct {
	Buckets       int    `yaml:"buckets"`         // Highest citation index tracked (n)
	Normalize     bool   `yaml:"normalize"`       // Convert raw vectors to distributions
	MaxInputChars int    `yaml:"max_input_chars"` // Rejected before scoring when exceeded
	Query         string `yaml:"query,omitempty"`
}

// HTTPConfig controls fetching of URL inputs
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty"`
	NoProxy       string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig controls memoization of scoring results
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Dir        string        `yaml:"dir"` // Empty keeps the cache in memory only
	MemoryTTL  time.Duration `yaml:"memory_ttl"`
	DiskTTL    time.Duration `yaml:"disk_ttl"`
	MaxEntries int           `yaml:"max_entries"` // Memory tier cap; 0 is unbounded
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitingConfig throttles outbound requests per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// LLMConfig configures the optional rewrite/query provider
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, ollama, or empty
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"-"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Timeout     int     `yaml:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// BrandConfig extends brand analysis
type BrandConfig struct {
	RiskKeywords []string `yaml:"risk_keywords"` // Checked in addition to the built-in list
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "geoscore-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".geoscore", "cache")
	}

	return &Config{
		Scoring: ScoringConfig{
			Buckets:       5,
			Normalize:     true,
			MaxInputChars: 50000,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "geoscore/0.1 (+https://github.com/ppiankov/geoscore)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        cacheDir,
			MemoryTTL:  10 * time.Minute,
			DiskTTL:    24 * time.Hour,
			MaxEntries: 1000,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		LLM: LLMConfig{
			Timeout:     60,
			MaxTokens:   1024,
			Temperature: 0.5,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
