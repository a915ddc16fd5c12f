package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/geoscore/internal/extract"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/nlp"
	"github.com/ppiankov/geoscore/internal/score"
	"github.com/ppiankov/geoscore/internal/worker"
)

func newTestScorer(t *testing.T) *score.Scorer {
	t.Helper()
	toolkit, err := nlp.NewEnglish()
	if err != nil {
		t.Fatalf("NewEnglish failed: %v", err)
	}
	return score.NewScorer(extract.NewSegmenter(toolkit), zaptest.NewLogger(t))
}

func newTestPipeline(t *testing.T, fetcher *Fetcher) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Scoring.MaxInputChars = 1000
	return NewPipeline(cfg, newTestScorer(t), fetcher, zaptest.NewLogger(t))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPipeline_ScoreSource_TextFile(t *testing.T) {
	p := newTestPipeline(t, nil)
	path := writeFile(t, "answer.txt", "Cats are great. [1] Cats are loved by many people around the world. [1][2]")

	report, err := p.ScoreSource(context.Background(), path)
	if err != nil {
		t.Fatalf("ScoreSource failed: %v", err)
	}

	if report.Subject != "answer.txt" {
		t.Errorf("Expected subject answer.txt, got %s", report.Subject)
	}
	if report.Buckets != 5 || report.Sentences != 2 {
		t.Errorf("Unexpected shape: buckets=%d sentences=%d", report.Buckets, report.Sentences)
	}
	wordPos := report.Citation[score.MetricWordPosition.String()]
	if len(wordPos) != 5 || wordPos[0] <= wordPos[1] {
		t.Errorf("Expected citation 1 to lead, got %v", wordPos)
	}
}

func TestPipeline_ScoreSource_HTMLFile(t *testing.T) {
	p := newTestPipeline(t, nil)
	path := writeFile(t, "answer.html", `<html><head><script>var x = "[3]";</script></head>
<body><p>Laksa is a spicy noodle soup. [1]</p><p>It is popular in Singapore. [2]</p></body></html>`)

	report, err := p.ScoreSource(context.Background(), path)
	if err != nil {
		t.Fatalf("ScoreSource failed: %v", err)
	}
	if report.Paragraphs != 2 {
		t.Errorf("Expected 2 paragraphs, got %d", report.Paragraphs)
	}
	if len(report.Hallucinated) != 0 {
		t.Errorf("Script text should not be scored, got hallucinated %v", report.Hallucinated)
	}
}

func TestPipeline_ScoreSource_FootnoteFile(t *testing.T) {
	p := newTestPipeline(t, nil)
	path := writeFile(t, "post.html", `<html><body><article>
<p>Laksa is a spicy noodle soup.<sup><a href="#fn:1">1</a></sup></p>
<p>It is popular in Singapore.<sup><a href="#fn:2">2</a></sup></p>
<section class="footnotes"><ol>
<li id="fn:1"><a href="https://example.org/laksa">History</a></li>
<li id="fn:2">Interview notes</li>
</ol></section>
</article></body></html>`)

	report, err := p.ScoreSource(context.Background(), path)
	if err != nil {
		t.Fatalf("ScoreSource failed: %v", err)
	}
	if report.Adapter != "footnotes" {
		t.Errorf("Expected footnotes adapter, got %q", report.Adapter)
	}
	if report.Sources[1] != "https://example.org/laksa" || len(report.Sources) != 1 {
		t.Errorf("Unexpected sources %v", report.Sources)
	}
	if report.Paragraphs != 2 || len(report.Hallucinated) != 0 {
		t.Errorf("Unexpected structure: %d paragraphs, hallucinated %v", report.Paragraphs, report.Hallucinated)
	}
}

func TestPipeline_ScoreSource_Stdin(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.SetStdin(strings.NewReader("Only one sentence here. [1]"))

	report, err := p.ScoreSource(context.Background(), StdinSource)
	if err != nil {
		t.Fatalf("ScoreSource failed: %v", err)
	}
	if report.Subject != "stdin" {
		t.Errorf("Expected subject stdin, got %s", report.Subject)
	}
}

func TestPipeline_ScoreSource_Guards(t *testing.T) {
	p := newTestPipeline(t, nil)

	empty := writeFile(t, "empty.txt", "   \n")
	if _, err := p.ScoreSource(context.Background(), empty); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}

	large := writeFile(t, "large.txt", strings.Repeat("Long text. [1] ", 100))
	if _, err := p.ScoreSource(context.Background(), large); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("Expected ErrInputTooLarge, got %v", err)
	}

	if _, err := p.ScoreSource(context.Background(), "https://example.com"); err == nil {
		t.Error("Expected error for URL without a fetcher")
	}
}

func TestPipeline_ScoreSource_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html><body><nav>Home [9]</nav>
<article><p>Cats are great. [1]</p><p>Dogs are loyal. [2]</p></article></body></html>`)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	p := newTestPipeline(t, fetcher)

	report, err := p.ScoreSource(context.Background(), server.URL+"/pets")
	if err != nil {
		t.Fatalf("ScoreSource failed: %v", err)
	}
	if report.Subject != "pets" || report.Adapter != "generic" {
		t.Errorf("Unexpected subject/adapter: %s/%s", report.Subject, report.Adapter)
	}
	if len(report.Hallucinated) != 0 {
		t.Errorf("Navigation should be dropped, got hallucinated %v", report.Hallucinated)
	}
}

func TestPipeline_ScoreSource_PlainTextURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, "Cats are great. [1]\n\nDogs are loyal. [2]")
	}))
	defer server.Close()

	p := newTestPipeline(t, NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", ""))

	report, err := p.ScoreSource(context.Background(), server.URL+"/answer.txt")
	if err != nil {
		t.Fatalf("ScoreSource failed: %v", err)
	}
	if report.Adapter != "" {
		t.Errorf("Plain text should skip the HTML adapters, got %q", report.Adapter)
	}
	if report.Paragraphs != 2 {
		t.Errorf("Expected 2 paragraphs, got %d", report.Paragraphs)
	}
}

func TestPipeline_BatchThroughWorkerPool(t *testing.T) {
	p := newTestPipeline(t, nil)
	a := writeFile(t, "a.txt", "First answer. [1]")
	b := writeFile(t, "b.txt", "")

	results := worker.NewBatchProcessor(p, 2, nil).ProcessSources(context.Background(), []string{a, b})
	if results[0].Error != nil || results[0].Report == nil {
		t.Errorf("Expected a.txt to score, got %v", results[0].Error)
	}
	if !errors.Is(results[1].Error, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput for b.txt, got %v", results[1].Error)
	}
}

func TestPipeline_RenderReport(t *testing.T) {
	p := newTestPipeline(t, nil)
	path := writeFile(t, "answer.txt", "Cats are great. [1] Dogs are loyal. [2]")

	report, err := p.ScoreSource(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "report.md")

	var out bytes.Buffer
	if err := p.RenderReport(&out, report, jsonPath, mdPath, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}

	for _, path := range []string{jsonPath, mdPath} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("Expected %s to be written: %v", path, err)
		}
	}
	if !strings.Contains(out.String(), "answer.txt") {
		t.Errorf("Summary should name the subject:\n%s", out.String())
	}
}
