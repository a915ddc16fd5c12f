package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/geoscore/internal/model"
)

type mockScorer struct {
	failOn map[string]bool
	delay  time.Duration

	mu   sync.Mutex
	seen []string
}

func (m *mockScorer) ScoreSource(ctx context.Context, source string) (*model.ScoreReport, error) {
	m.mu.Lock()
	m.seen = append(m.seen, source)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failOn[source] {
		return nil, errors.New("score error")
	}
	return &model.ScoreReport{Subject: source, Buckets: 5}, nil
}

func TestBatchProcessor_ProcessSources(t *testing.T) {
	scorer := &mockScorer{failOn: map[string]bool{"b.txt": true}, delay: 5 * time.Millisecond}
	processor := NewBatchProcessor(scorer, 2, zaptest.NewLogger(t))

	sources := []string{"a.txt", "b.txt", "https://example.com/c", "d.txt"}
	results := processor.ProcessSources(context.Background(), sources)

	if len(results) != len(sources) {
		t.Fatalf("expected %d results, got %d", len(sources), len(results))
	}

	for i, r := range results {
		if r.Source != sources[i] {
			t.Errorf("result %d source = %s, want %s", i, r.Source, sources[i])
		}
		if sources[i] == "b.txt" {
			if r.Error == nil {
				t.Error("expected error for b.txt")
			}
			continue
		}
		if r.Error != nil || r.Report == nil || r.Report.Subject != sources[i] {
			t.Errorf("unexpected result for %s: %+v", sources[i], r)
		}
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockScorer{}, 2, nil)
	if results := processor.ProcessSources(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockScorer{delay: time.Second}, 1, nil)
	results := processor.ProcessSources(ctx, []string{"a", "b", "c"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("expected context.Canceled for %s, got %v", r.Source, r.Error)
		}
	}
}

func TestReadSources(t *testing.T) {
	input := `
# pages to score
https://example.com/a
notes/draft.md

https://example.com/a
/abs/path.txt
`
	got, err := ReadSources(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"https://example.com/a", "notes/draft.md", "/abs/path.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadSources mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSourcesFromFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(list, []byte("draft.md\nhttps://example.com\n/abs.txt\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSourcesFromFile(list)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{filepath.Join(dir, "draft.md"), "https://example.com", "/abs.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadSourcesFromFile mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadSourcesFromFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing list file")
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com": true,
		"HTTP://example.com":  true,
		"example.com":         false,
		"./file.txt":          false,
		"-":                   false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
