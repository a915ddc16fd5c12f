package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/geoscore/internal/brand"
)

var (
	brandRiskKeywords []string
	brandJSON         bool
)

// brandCmd represents the brand command
var brandCmd = &cobra.Command{
	Use:   "brand <name>",
	Short: "Check how an LLM describes a brand",
	Long: `Brand asks the configured LLM to describe a brand, then reports the
description's sentiment, risk flags (negative tone and risk keywords),
keywords, named entities and a 0-100 reputation score.

Risk keywords extend the built-in list (` + strings.Join(brand.DefaultRiskKeywords, ", ") + `)
from brand.risk_keywords in the config file and --risk-keyword.

Example:
  geoscore brand "Acme Bakery"
  geoscore brand Acme --risk-keyword recall --risk-keyword "data breach" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBrand,
}

func init() {
	rootCmd.AddCommand(brandCmd)

	brandCmd.Flags().StringSliceVar(&brandRiskKeywords, "risk-keyword", nil, "extra risk keyword (repeatable or comma-separated)")
	brandCmd.Flags().BoolVar(&brandJSON, "json", false, "print JSON instead of text")
}

func runBrand(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLLM(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(a.cfg.LLM.Timeout)*time.Second)
	defer cancel()

	report, err := a.brandAnalyzer(brandRiskKeywords).Analyze(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if brandJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printBrandReport(out, report)
	return nil
}

func printBrandReport(w io.Writer, r *brand.Report) {
	fmt.Fprintf(w, "🏷  %s\n", r.Brand)
	fmt.Fprintf(w, "   Summary:    %s\n", r.Summary)
	fmt.Fprintf(w, "   Sentiment:  %s\n", r.Sentiment)
	if len(r.Risks) == 0 {
		fmt.Fprintf(w, "   Risks:      ✓ none\n")
	} else {
		fmt.Fprintf(w, "   Risks:      ⚠️  %s\n", strings.Join(r.Risks, ", "))
	}
	fmt.Fprintf(w, "   Keywords:   %s\n", orDash(r.Keywords))
	fmt.Fprintf(w, "   Entities:   %s\n", orDash(r.Entities))
	fmt.Fprintf(w, "   Persons:    %s\n", orDash(r.Persons))
	fmt.Fprintf(w, "   Reputation: %.2f/100\n", r.Reputation)
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
