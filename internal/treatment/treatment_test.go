package treatment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/geoscore/internal/llm"
)

type fakeProvider struct {
	reply string
	err   error
	got   llm.CompletionRequest
}

func (f *fakeProvider) Name() string                         { return "fake" }
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "fake-1", TokensUsed: 42}, nil
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input string
		want  Method
	}{
		{"quotation", Quotation},
		{"  Stats ", Stats},
		{"FLUENCY", Fluency},
		{"keyword", Keyword},
	}

	for _, tt := range tests {
		got, err := ParseMethod(tt.input)
		if err != nil {
			t.Errorf("ParseMethod(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseMethod_Unknown(t *testing.T) {
	_, err := ParseMethod("summarize")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("Expected ErrUnknownMethod, got %v", err)
	}
	for _, name := range Names() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Error should list %q: %v", name, err)
		}
	}
}

func TestParseMethods(t *testing.T) {
	all, err := ParseMethods(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Method{Quotation, Stats, Fluency, Keyword}, all); diff != "" {
		t.Errorf("ParseMethods(nil) mismatch (-want +got):\n%s", diff)
	}

	some, err := ParseMethods([]string{"stats", "Stats", "fluency"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Method{Stats, Fluency}, some); diff != "" {
		t.Errorf("ParseMethods dedupe mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseMethods([]string{"stats", "bogus"}); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Expected ErrUnknownMethod, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	content := "Laksa is a spicy noodle soup [1]. It costs 100% of my lunch budget."

	for _, m := range Methods() {
		prompt, err := BuildPrompt(m, content)
		if err != nil {
			t.Fatalf("BuildPrompt(%s): %v", m, err)
		}
		if !strings.Contains(prompt, content) {
			t.Errorf("%s prompt should embed content verbatim", m)
		}
		if strings.Contains(prompt, "{content}") {
			t.Errorf("%s prompt still has a placeholder", m)
		}
		if !strings.Contains(prompt, "citation markers") {
			t.Errorf("%s prompt should ask to keep citation markers", m)
		}
	}

	if _, err := BuildPrompt(Method(99), content); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Expected ErrUnknownMethod for out-of-range method, got %v", err)
	}
}

func TestApply(t *testing.T) {
	provider := &fakeProvider{reply: "```\nLaksa is \"the soul of Singapore\" [1].\n```"}

	result, err := Apply(context.Background(), provider, Keyword, "Laksa is a soup [1].")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if result.Content != `Laksa is "the soul of Singapore" [1].` {
		t.Errorf("Unexpected content %q", result.Content)
	}
	if result.Provider != "fake" || result.Model != "fake-1" || result.TokensUsed != 42 {
		t.Errorf("Unexpected metadata %+v", result)
	}
	if provider.got.System == "" || !strings.Contains(provider.got.Prompt, "Laksa is a soup [1].") {
		t.Errorf("Unexpected request %+v", provider.got)
	}
}

func TestApply_Errors(t *testing.T) {
	if _, err := Apply(context.Background(), nil, Stats, "text"); err == nil {
		t.Error("Expected error without provider")
	}

	upstream := errors.New("rate limited")
	_, err := Apply(context.Background(), &fakeProvider{err: upstream}, Stats, "text")
	if !errors.Is(err, upstream) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}

	if _, err := Apply(context.Background(), &fakeProvider{reply: "   "}, Stats, "text"); err == nil {
		t.Error("Expected error for empty rewrite")
	}
}
