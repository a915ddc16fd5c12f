package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/geoscore/internal/brand"
)

func TestPrintBrandReport(t *testing.T) {
	var buf bytes.Buffer
	printBrandReport(&buf, &brand.Report{
		Brand:      "Acme",
		Summary:    "Acme bakes bread.",
		Sentiment:  "Neutral (0.00)",
		Risks:      []string{"lawsuit"},
		Keywords:   []string{"bread"},
		Reputation: 47,
	})

	out := buf.String()
	for _, want := range []string{"Acme", "⚠️  lawsuit", "Keywords:   bread", "Entities:   -", "Reputation: 47.00/100"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestUncited(t *testing.T) {
	if diff := cmp.Diff([]int{2, 4}, uncited([]int{1, 3, 9}, 4)); diff != "" {
		t.Errorf("uncited mismatch (-want +got):\n%s", diff)
	}
	if got := uncited([]int{1, 2}, 2); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}
