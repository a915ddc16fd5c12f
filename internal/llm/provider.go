package llm

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/geoscore/internal/metrics"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	// System is an optional system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length; zero uses the configured limit
	MaxTokens int

	// Temperature overrides the configured temperature when non-nil
	Temperature *float64
}

// CompletionResponse is the model's reply
type CompletionResponse struct {
	// Content is the trimmed reply text
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "venice", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     60,
		MaxTokens:   1024,
		Temperature: 0.5,
	}
}

const defaultTimeout = 60 * time.Second

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return fallback
}

// resolve fills request defaults from the provider config
func (c Config) resolve(req CompletionRequest, defaultModel string) (model string, maxTokens int, temperature float64) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}

	temperature = c.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return model, maxTokens, temperature
}

// instrumented records request counts and latency for a provider
type instrumented struct {
	Provider
}

// Instrument wraps a provider with Prometheus metrics
func Instrument(p Provider) Provider {
	if p == nil {
		return nil
	}
	return &instrumented{Provider: p}
}

func (i *instrumented) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	started := time.Now()
	resp, err := i.Provider.Complete(ctx, req)
	metrics.RecordLLMRequest(i.Name(), started, err)
	return resp, err
}

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// StripCodeFence removes a surrounding Markdown code fence from a reply
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
