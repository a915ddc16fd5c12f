package pipeline

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/geoscore/internal/model"
)

func sampleReport() *model.ScoreReport {
	return &model.ScoreReport{
		ID:           "r-1",
		Subject:      "Laksa",
		Query:        "what is laksa",
		ScoredAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Buckets:      2,
		Normalize:    true,
		Paragraphs:   1,
		Sentences:    2,
		Sources:      map[int]string{2: "https://b.example", 1: "https://a.example"},
		Hallucinated: []int{7},
		Citation: map[string][]float64{
			"Word+Position": {0.75, 0.25},
		},
		Composite: map[string][]float64{
			"Authoritativeness (cited)": {0.6, 0.4},
		},
		Summary: map[string]float64{
			"Word+Position":             50,
			"Authoritativeness (cited)": 50,
			"Overall Authoritativeness": 42.5,
			"Overall Source-ability":    30,
			"Overall Uniqueness":        88,
		},
		Signals: []model.Signal{{
			Type:        model.SignalHallucination,
			Severity:    model.SeverityWarning,
			Description: "1 citation index(es) outside [1, 2] were ignored",
		}},
		Treatments: []model.TreatmentResult{{
			Method:   "stats",
			Provider: "fake",
			Delta:    map[string]float64{"Word+Position": 1.5, "Overall Authoritativeness": -2},
		}},
	}
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer(true).Markdown(sampleReport())

	for _, want := range []string{
		"# Citation impression report: Laksa",
		"- **Query:** what is laksa",
		"| Authoritativeness | 42.50% |",
		"| Source-ability | 30.00% |",
		"| Metric | Average | [1] | [2] |",
		"| Word+Position | 50.00% | 0.750 | 0.250 |",
		"| Authoritativeness (cited) | 50.00% | 0.600 | 0.400 |",
		"- [1] https://a.example\n- [2] https://b.example",
		"**hallucinated_citation** (warning)",
		"| stats | fake | +1.50 | -2.00 | +0.00 |",
		"not factual accuracy",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q:\n%s", want, md)
		}
	}

	if strings.Contains(NewRenderer(false).Markdown(sampleReport()), "not factual accuracy") {
		t.Error("Footer should be omitted when disabled")
	}
}

func TestRenderer_RenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(false).RenderSummary(&buf, sampleReport())
	out := buf.String()

	for _, want := range []string{"Laksa", "Authoritativeness:", "42.50%", "[1] 75.0%", "[7]"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderer_RenderScores(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(false).RenderScores(&buf, map[string]float64{"Word-only": 50, "Diversity": 12.5})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Diversity") || !strings.Contains(lines[0], "12.50") {
		t.Errorf("Unexpected scores output:\n%s", buf.String())
	}
}
