// Package treatment builds and runs GEO content rewrites: prompts that ask
// an LLM to add quotations, statistics, fluency or keywords to a text.
package treatment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/geoscore/internal/llm"
)

// ErrUnknownMethod is returned for treatment names outside the fixed table
var ErrUnknownMethod = errors.New("unknown treatment method")

// Method selects a rewrite strategy
type Method int

const (
	Quotation Method = iota
	Stats
	Fluency
	Keyword
)

var methodTable = [...]struct {
	name     string
	template string
}{
	Quotation: {"quotation", quotationPrompt},
	Stats:     {"stats", statsPrompt},
	Fluency:   {"fluency", fluencyPrompt},
	Keyword:   {"keyword", keywordPrompt},
}

// Methods returns every supported method in table order
func Methods() []Method {
	methods := make([]Method, len(methodTable))
	for i := range methodTable {
		methods[i] = Method(i)
	}
	return methods
}

// Names returns the supported method names
func Names() []string {
	names := make([]string, len(methodTable))
	for i, m := range methodTable {
		names[i] = m.name
	}
	return names
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodTable) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodTable[m].name
}

// ParseMethod resolves a method name, ignoring case and surrounding space
func ParseMethod(name string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, m := range methodTable {
		if m.name == key {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q (choose from: %s)", ErrUnknownMethod, name, strings.Join(Names(), ", "))
}

// ParseMethods resolves a list of names, rejecting the first unknown one.
// An empty list selects every method.
func ParseMethods(names []string) ([]Method, error) {
	if len(names) == 0 {
		return Methods(), nil
	}

	seen := make(map[Method]bool, len(names))
	var methods []Method
	for _, name := range names {
		m, err := ParseMethod(name)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	return methods, nil
}

// BuildPrompt fills the method's template with content
func BuildPrompt(method Method, content string) (string, error) {
	if method < 0 || int(method) >= len(methodTable) {
		return "", fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return strings.Replace(methodTable[method].template, "{content}", content, 1), nil
}

// Result is one completed rewrite
type Result struct {
	Method     Method
	Prompt     string
	Content    string
	Provider   string
	Model      string
	TokensUsed int
}

// Apply sends the method's prompt to provider and returns the rewritten text
func Apply(ctx context.Context, provider llm.Provider, method Method, content string) (*Result, error) {
	if provider == nil {
		return nil, fmt.Errorf("treatment %s: no LLM provider configured", method)
	}

	prompt, err := BuildPrompt(method, content)
	if err != nil {
		return nil, err
	}

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("treatment %s: %w", method, err)
	}

	rewritten := strings.TrimSpace(llm.StripCodeFence(resp.Content))
	if rewritten == "" {
		return nil, fmt.Errorf("treatment %s: empty rewrite", method)
	}

	return &Result{
		Method:     method,
		Prompt:     prompt,
		Content:    rewritten,
		Provider:   provider.Name(),
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}
