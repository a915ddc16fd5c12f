package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/geoscore/internal/llm"
)

type scriptedProvider struct {
	reply string
	err   error
}

func (s *scriptedProvider) Name() string                         { return "scripted" }
func (s *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.reply}, nil
}

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []string
		wantErr bool
	}{
		{
			name:  "plain array",
			reply: `["What is laksa?", "Where to eat laksa?"]`,
			want:  []string{"What is laksa?", "Where to eat laksa?"},
		},
		{
			name:  "fenced",
			reply: "```json\n[\"a\", \"b\"]\n```",
			want:  []string{"a", "b"},
		},
		{
			name:  "prose around array",
			reply: "Sure! Here you go:\n[\"a\"]\nHope that helps.",
			want:  []string{"a"},
		},
		{
			name:  "truncated to five and blanks dropped",
			reply: `["1", " ", "2", "3", "4", "5", "6"]`,
			want:  []string{"1", "2", "3", "4", "5"},
		},
		{name: "not json", reply: "1. What is laksa?", wantErr: true},
		{name: "python expression", reply: `__import__("os").system("true")`, wantErr: true},
		{name: "objects", reply: `[{"q": "a"}]`, wantErr: true},
		{name: "empty", reply: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueries(tt.reply)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQueries() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); !tt.wantErr && diff != "" {
				t.Errorf("ParseQueries() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelatedQueries(t *testing.T) {
	provider := &scriptedProvider{reply: `["What is GEO?", "How does GEO work?"]`}

	got, err := RelatedQueries(context.Background(), provider, "GEO")
	if err != nil {
		t.Fatalf("RelatedQueries failed: %v", err)
	}
	if diff := cmp.Diff([]string{"What is GEO?", "How does GEO work?"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRelatedQueries_Fallback(t *testing.T) {
	want := FallbackQueries("GEO")
	if len(want) != QueryCount || want[0] != "What is GEO?" {
		t.Fatalf("Unexpected fallback list %v", want)
	}

	tests := []struct {
		name     string
		provider llm.Provider
	}{
		{"no provider", nil},
		{"provider error", &scriptedProvider{err: errors.New("boom")}},
		{"unparseable reply", &scriptedProvider{reply: "I cannot help with that."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelatedQueries(context.Background(), tt.provider, "GEO")
			if err == nil {
				t.Error("Expected the failure to be reported")
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Expected fallback list (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"What is GEO?", Informational},
		{"Explain citation scoring", Informational},
		{"Where is the support page", Navigational},
		{"contact sales", Navigational},
		{"Buy a laksa kit", Transactional},
		{"download report", Transactional},
		{"how much does it cost to buy", Informational},
		{"somehow showing whatever", Unknown},
		{"laksa recipes", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := ClassifyIntent(tt.query); got != tt.want {
			t.Errorf("ClassifyIntent(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	got := Classify([]string{"Why GEO?", "GEO price"})
	want := []Insight{{"Why GEO?", Informational}, {"GEO price", Transactional}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	prompt := BuildAnswerPrompt(" best laksa? ", []string{"Laksa is a noodle soup.", " Katong laksa is famous. "})

	for _, want := range []string{
		"Question: best laksa?",
		"### Source 1:\nLaksa is a noodle soup.",
		"### Source 2:\nKatong laksa is famous.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateAnswer(t *testing.T) {
	provider := &scriptedProvider{reply: "Laksa is a spicy noodle soup [1]. Katong laksa is famous [2][1]. Odd claim [7]."}

	answer, err := GenerateAnswer(context.Background(), provider, "What is laksa?", []string{"a", "b"})
	if err != nil {
		t.Fatalf("GenerateAnswer: %v", err)
	}

	want := &Answer{
		Query:     "What is laksa?",
		Text:      "Laksa is a spicy noodle soup [1]. Katong laksa is famous [2][1]. Odd claim [7].",
		Sources:   2,
		Citations: []int{1, 2, 7},
	}
	if diff := cmp.Diff(want, answer); diff != "" {
		t.Errorf("Answer mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateAnswer_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		provider llm.Provider
		query    string
		want     error
	}{
		{"no provider", nil, "What is laksa?", ErrNoProvider},
		{"blank query", &scriptedProvider{reply: "x"}, " ", ErrEmptyQuery},
		{"provider error", &scriptedProvider{err: boom}, "What is laksa?", boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateAnswer(context.Background(), tt.provider, tt.query, []string{"a"}); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := GenerateAnswer(context.Background(), &scriptedProvider{reply: "  "}, "q", nil); err == nil {
		t.Error("Expected error for empty reply")
	}
}
