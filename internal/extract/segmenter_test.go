package extract

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/nlp"
	"github.com/ppiankov/geoscore/internal/nlp/nlptest"
)

func newEnglishSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	toolkit, err := nlp.NewEnglish()
	if err != nil {
		t.Fatalf("NewEnglish failed: %v", err)
	}
	return NewSegmenter(toolkit)
}

func TestExtractCitations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []int
	}{
		{"single", "Cats are great. [1]", []int{1}},
		{"space padded", "Dogs too [ 2 ].", []int{2}},
		{"punctuation padding", "Birds [-3-] and [*4].", []int{3, 4}},
		{"double brackets", "Fish [[3]].", []int{3}},
		{"adjacent keeps order", "Loved [2][1].", []int{2, 1}},
		{"duplicates kept", "Again [1] and [1].", []int{1, 1}},
		{"out of range still extracted", "Odd [99].", []int{99}},
		{"word inside brackets is not a citation", "See [note 1].", nil},
		{"none", "No markers here.", nil},
		{"overflowing index kept out of range", "Huge [99999999999999999999].", []int{math.MaxInt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCitations(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractCitations(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestSegmenter_InvalidUTF8KeepsTokens(t *testing.T) {
	seg := newEnglishSegmenter(t)

	doc := seg.Segment("Cats are loved by many people around the world \xff and beyond. [1]")
	sents := doc.Sentences()
	if len(sents) != 1 {
		t.Fatalf("Expected 1 sentence, got %d", len(sents))
	}

	tokens := sents[0].Tokens
	if n := len(tokens); n < 4 || strings.Join(tokens[n-4:], " ") != ". [ 1 ]" {
		t.Errorf("Tokens after the invalid byte were lost: %q", tokens)
	}
	joined := strings.Join(tokens, " ")
	if !strings.Contains(joined, "and beyond") {
		t.Errorf("Expected 'and beyond' in tokens, got %q", tokens)
	}
	if diff := cmp.Diff([]int{1}, sents[0].Citations); diff != "" {
		t.Errorf("Citations mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitParagraphs(t *testing.T) {
	in := "First para.\n\n\nSecond para.\n   \nThird\nstill third.\n\n  "
	want := []string{"First para.", "Second para.", "Third\nstill third."}

	if diff := cmp.Diff(want, SplitParagraphs(in)); diff != "" {
		t.Errorf("SplitParagraphs mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmenter_CitationScenario(t *testing.T) {
	seg := newEnglishSegmenter(t)

	doc := seg.Segment("Cats are great. [1] Cats are loved by many people around the world. [1][2]")

	if len(doc) != 1 {
		t.Fatalf("Expected 1 paragraph, got %d", len(doc))
	}
	sentences := doc.Sentences()
	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(sentences))
	}

	if diff := cmp.Diff([]int{1}, sentences[0].Citations); diff != "" {
		t.Errorf("sentence 1 citations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2}, sentences[1].Citations); diff != "" {
		t.Errorf("sentence 2 citations (-want +got):\n%s", diff)
	}
	if sentences[0].Text != "Cats are great. [1]" {
		t.Errorf("Unexpected sentence text %q", sentences[0].Text)
	}
}

func TestSegmenter_Paragraphs(t *testing.T) {
	seg := newEnglishSegmenter(t)

	doc := seg.Segment("Para one has a sentence. And another.\r\n\r\nPara two stands alone.\n\n\n\n")

	if len(doc) != 2 {
		t.Fatalf("Expected 2 paragraphs, got %d", len(doc))
	}
	if len(doc[0]) != 2 || len(doc[1]) != 1 {
		t.Errorf("Expected 2+1 sentences, got %d+%d", len(doc[0]), len(doc[1]))
	}
	if doc.SentenceCount() != 3 {
		t.Errorf("Expected 3 sentences, got %d", doc.SentenceCount())
	}
}

func TestSegmenter_NoBlankLinesIsOneParagraph(t *testing.T) {
	seg := newEnglishSegmenter(t)

	doc := seg.Segment("Line one.\nLine two.\nLine three.")
	if len(doc) != 1 {
		t.Errorf("Expected 1 paragraph, got %d", len(doc))
	}
}

func TestSegmenter_Empty(t *testing.T) {
	seg := newEnglishSegmenter(t)

	for _, in := range []string{"", "   ", "\n\n\n"} {
		if doc := seg.Segment(in); len(doc) != 0 {
			t.Errorf("Segment(%q) = %d paragraphs, want 0", in, len(doc))
		}
	}
}

func TestSegmenter_Deterministic(t *testing.T) {
	seg := newEnglishSegmenter(t)

	text := strings.Repeat("Acme Corp reported 12% growth in London [1]. Analysts at https://example.com agreed [2].\n\n", 3) +
		"Café owners said \"fine.\" [3] Nothing else."

	first := seg.Segment(text)
	second := seg.Segment(text)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Segment is not deterministic (-first +second):\n%s", diff)
	}
}

func TestSegmenter_UsesInjectedToolkit(t *testing.T) {
	seg := NewSegmenter(&nlptest.Toolkit{})

	doc := seg.Segment("a b [1] | c d e [2][3]\n\nf")

	want := model.Document{
		{
			{Tokens: []string{"a", "b", "[1]"}, Text: "a b [1]", Citations: []int{1}},
			{Tokens: []string{"c", "d", "e", "[2][3]"}, Text: "c d e [2][3]", Citations: []int{2, 3}},
		},
		{
			{Tokens: []string{"f"}, Text: "f"},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Segment mismatch (-want +got):\n%s", diff)
	}
}
