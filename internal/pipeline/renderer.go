package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/score"
)

// Renderer writes score reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.ScoreReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(report *model.ScoreReport, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(report)), 0644)
}

// Markdown formats the report: summary, per-citation table, signals
func (r *Renderer) Markdown(report *model.ScoreReport) string {
	var b strings.Builder

	title := report.Subject
	if title == "" {
		title = "Document"
	}
	fmt.Fprintf(&b, "# Citation impression report: %s\n\n", title)
	fmt.Fprintf(&b, "- **Report ID:** %s\n", report.ID)
	fmt.Fprintf(&b, "- **Scored:** %s\n", report.ScoredAt.Format("2006-01-02 15:04:05 MST"))
	if report.Query != "" {
		fmt.Fprintf(&b, "- **Query:** %s\n", report.Query)
	}
	if report.Adapter != "" {
		fmt.Fprintf(&b, "- **Extractor:** %s\n", report.Adapter)
	}
	fmt.Fprintf(&b, "- **Citations tracked:** [1]..[%d] (normalized: %t)\n", report.Buckets, report.Normalize)
	fmt.Fprintf(&b, "- **Paragraphs / sentences:** %d / %d\n\n", report.Paragraphs, report.Sentences)

	b.WriteString("## Whole-document scores\n\n")
	b.WriteString("| Score | Value |\n|---|---:|\n")
	for _, key := range score.OverallKeys() {
		if v, ok := report.Summary[key]; ok {
			fmt.Fprintf(&b, "| %s | %.2f%% |\n", strings.TrimPrefix(key, "Overall "), v)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Per-citation scores\n\n")
	b.WriteString("| Metric | Average |")
	for i := 1; i <= report.Buckets; i++ {
		fmt.Fprintf(&b, " [%d] |", i)
	}
	b.WriteString("\n|---|---:|")
	b.WriteString(strings.Repeat("---:|", report.Buckets))
	b.WriteString("\n")

	for _, m := range score.Metrics() {
		vec, ok := vectorFor(report, m)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %.2f%% |", m, report.Summary[m.String()])
		for _, v := range vec {
			fmt.Fprintf(&b, " %.3f |", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(report.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, idx := range sortedSourceIndices(report.Sources) {
			fmt.Fprintf(&b, "- [%d] %s\n", idx, report.Sources[idx])
		}
		b.WriteString("\n")
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range report.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	if len(report.Treatments) > 0 {
		b.WriteString("## Treatments\n\n")
		b.WriteString("| Method | Provider | Word+Position Δ | Authoritativeness Δ | Uniqueness Δ | Error |\n")
		b.WriteString("|---|---|---:|---:|---:|---|\n")
		overall := score.OverallKeys()
		for _, t := range report.Treatments {
			fmt.Fprintf(&b, "| %s | %s | %+.2f | %+.2f | %+.2f | %s |\n",
				t.Method, t.Provider,
				t.Delta[score.MetricWordPosition.String()],
				t.Delta[overall[0]],
				t.Delta[overall[2]],
				t.Error)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Scores estimate how prominently a generative engine's answer cites each source. ")
		b.WriteString("They describe position and word share, not factual accuracy.*\n")
	}

	return b.String()
}

// RenderSummary prints a short human-readable summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.ScoreReport) {
	subject := report.Subject
	if subject == "" {
		subject = "document"
	}

	fmt.Fprintf(w, "\n📊 %s\n", subject)
	fmt.Fprintf(w, "   %d paragraphs, %d sentences, citations [1]..[%d]\n", report.Paragraphs, report.Sentences, report.Buckets)

	for _, key := range score.OverallKeys() {
		if v, ok := report.Summary[key]; ok {
			fmt.Fprintf(w, "   %-22s %6.2f%%\n", strings.TrimPrefix(key, "Overall ")+":", v)
		}
	}

	if vec, ok := report.Citation[score.MetricWordPosition.String()]; ok {
		fmt.Fprintf(w, "   Word+Position by citation:")
		for i, v := range vec {
			fmt.Fprintf(w, " [%d] %.1f%%", i+1, v*100)
		}
		fmt.Fprintln(w)
	}

	if len(report.Hallucinated) > 0 {
		fmt.Fprintf(w, "   ⚠️  Ignored citation indices outside [1, %d]: %v\n", report.Buckets, report.Hallucinated)
	}
}

// RenderScores prints a flat score map in a stable order
func (r *Renderer) RenderScores(w io.Writer, scores map[string]float64) {
	keys := make([]string, 0, len(scores))
	width := 0
	for k := range scores {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%-*s  %6.2f\n", width, k, scores[k])
	}
}

func vectorFor(report *model.ScoreReport, m score.Metric) ([]float64, bool) {
	if m.Composite() {
		vec, ok := report.Composite[m.String()]
		return vec, ok
	}
	vec, ok := report.Citation[m.String()]
	return vec, ok
}

func sortedSourceIndices(sources map[int]string) []int {
	indices := make([]int, 0, len(sources))
	for idx := range sources {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
