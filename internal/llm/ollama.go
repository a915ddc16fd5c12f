package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama daemon through its chat endpoint
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllamaProvider creates an Ollama provider; BaseURL defaults to the
// local daemon
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config),
		config:     config,
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

// IsAvailable reports whether the daemon answers and, when a model is
// configured, whether that model has been pulled
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	if p.config.Model == "" {
		return true
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	for _, m := range tags.Models {
		if m.Name == p.config.Model || m.Name == p.config.Model+":latest" {
			return true
		}
	}
	return false
}

// Complete sends the prompt as a single chat turn
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, maxTokens, temperature := p.config.resolve(req, "")
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	messages := make([]ollamaMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	body := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Options:  ollamaOptions{Temperature: temperature, NumPredict: maxTokens},
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, p.httpClient, p.baseURL+"/api/chat", nil, body, &resp, jsonErrorField("error")); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	content := strings.TrimSpace(resp.Message.Content)
	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		// roughly four characters per token when the model reports nothing
		tokens = (utf8.RuneCountInString(req.System) + utf8.RuneCountInString(req.Prompt) + utf8.RuneCountInString(content)) / 4
	}

	return &CompletionResponse{Content: content, Model: resp.Model, TokensUsed: tokens}, nil
}
