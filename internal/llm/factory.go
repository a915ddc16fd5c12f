package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/geoscore/internal/model"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"

	retryAttempts = 3
	retryBackoff  = 2 * time.Second
)

// NewProvider creates a new LLM provider based on configuration. An empty
// provider name disables LLM features and returns nil.
func NewProvider(config Config) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		p, err = NewOpenAIProvider(config)

	case "venice":
		if config.BaseURL == "" {
			config.BaseURL = veniceBaseURL
		}
		p, err = NewOpenAIProvider(config)

	case "anthropic", "claude":
		p, err = NewAnthropicProvider(config)

	case "ollama":
		p, err = NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, venice, anthropic, ollama)", config.Provider)
	}

	if err != nil {
		return nil, err
	}
	return Instrument(WithRetry(p, retryAttempts, retryBackoff)), nil
}

// ConfigFromModel converts model configuration to llm.Config. Missing API
// keys and base URLs are taken from the environment.
func ConfigFromModel(cfg *model.Config) Config {
	c := Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	}

	provider := strings.ToLower(c.Provider)
	if env := apiKeyEnv(provider); c.APIKey == "" && env != "" {
		c.APIKey = os.Getenv(env)
	}
	if c.BaseURL == "" {
		switch provider {
		case "ollama":
			c.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		case "openai", "venice":
			c.BaseURL = os.Getenv("LLM_BASE_URL")
		}
	}

	return c
}

func apiKeyEnv(provider string) string {
	switch provider {
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "venice":
		return "VENICE_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
