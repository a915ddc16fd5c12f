package llm

import (
	"testing"

	"github.com/ppiankov/geoscore/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"disabled", Config{}, "", false},
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"venice", Config{Provider: "Venice", APIKey: "k"}, "venice", false},
		{"anthropic alias", Config{Provider: "claude", APIKey: "k"}, "anthropic", false},
		{"ollama", Config{Provider: "ollama"}, "ollama", false},
		{"missing key", Config{Provider: "openai"}, "", true},
		{"unknown", Config{Provider: "bard"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantName == "" {
				if p != nil {
					t.Errorf("Expected nil provider, got %s", p.Name())
				}
				return
			}
			if p == nil || p.Name() != tt.wantName {
				t.Errorf("Expected provider %s, got %v", tt.wantName, p)
			}
		})
	}
}

func TestConfigFromModel_EnvFallbacks(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	cfg.HTTP.HTTPSProxy = "http://proxy:3128"

	c := ConfigFromModel(cfg)
	if c.APIKey != "env-key" {
		t.Errorf("Expected key from environment, got %q", c.APIKey)
	}
	if c.HTTPSProxy != "http://proxy:3128" || c.Timeout != 60 || c.MaxTokens != 1024 {
		t.Errorf("Unexpected config %+v", c)
	}

	cfg.LLM.Provider = "ollama"
	if c := ConfigFromModel(cfg); c.BaseURL != "http://ollama:11434" || c.APIKey != "" {
		t.Errorf("Unexpected ollama config %+v", c)
	}

	cfg.LLM.APIKey = "explicit"
	cfg.LLM.Provider = "anthropic"
	if c := ConfigFromModel(cfg); c.APIKey != "explicit" {
		t.Errorf("Expected explicit key to win, got %q", c.APIKey)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"```json\n[\"a\", \"b\"]\n```": `["a", "b"]`,
		"```\nplain\n```":              "plain",
		`  ["x"]  `:                    `["x"]`,
		"no fence":                     "no fence",
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
