package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/score"
	"github.com/ppiankov/geoscore/internal/treatment"
)

var (
	scoreURL     string
	scoreQuery   string
	scoreBuckets int
	scoreRaw     bool
	scoreMode    string
	outJSON      string
	outMD        string
	timeout      time.Duration
	noCache      bool
	noFooter     bool
	insecureTLS  bool
	treatNames   []string
	llmEnabled   bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [file|-]",
	Short: "Score citation impressions in a generated answer",
	Long: `Score reads an answer from a file, stdin ("-") or a URL and reports how
much of the text each citation [1]..[n] is credited with.

Modes:
  all       full report: per-citation vectors, composites, whole-document scores
  citation  averaged per-citation percentages only
  document  whole-document authority, source-ability and uniqueness only

Example:
  geoscore score answer.txt
  geoscore score - --query "best laksa in Singapore" -n 10 < answer.txt
  geoscore score --url https://en.wikipedia.org/wiki/Laksa --md report.md
  geoscore score answer.txt --llm --treat quotation,stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	// Scoring flags
	scoreCmd.Flags().StringVar(&scoreURL, "url", "", "fetch the answer from a URL instead of a file")
	scoreCmd.Flags().StringVarP(&scoreQuery, "query", "q", "", "query for the Relevance and Influence metrics")
	scoreCmd.Flags().IntVarP(&scoreBuckets, "buckets", "n", 5, "highest citation index tracked")
	scoreCmd.Flags().BoolVar(&scoreRaw, "raw", false, "report raw vectors instead of distributions")
	scoreCmd.Flags().StringVar(&scoreMode, "mode", "all", "citation, document or all")

	// Output flags
	scoreCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	scoreCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	scoreCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// HTTP flags
	scoreCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout including fetch and LLM calls")
	scoreCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch and scoring)")
	scoreCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")

	// Treatment flags
	scoreCmd.Flags().BoolVar(&llmEnabled, "llm", false, "rewrite the answer with each treatment and score the rewrites")
	scoreCmd.Flags().StringSliceVar(&treatNames, "treat", nil, "treatments to compare with --llm (default: all)")
}

// scoringConfig resolves configuration and applies the score flags that
// were set explicitly
func scoringConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.Scoring.Query = scoreQuery
	}
	if flags.Changed("buckets") {
		cfg.Scoring.Buckets = scoreBuckets
	}
	if scoreRaw {
		cfg.Scoring.Normalize = false
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}

	if err := score.CheckBuckets(cfg.Scoring.Buckets); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	mode, err := score.ParseMode(scoreMode)
	if err != nil {
		return err
	}

	source := pipeline.StdinSource
	switch {
	case scoreURL != "" && len(args) > 0:
		return fmt.Errorf("pass either a file or --url, not both")
	case scoreURL != "":
		source = scoreURL
	case len(args) == 1:
		source = args[0]
	}

	cfg, err := scoringConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newAppWithConfig(cfg, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if llmEnabled {
		if err := a.requireLLM(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p := a.pipeline()
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Reading %s...\n", source)
	}

	in, err := p.Resolve(ctx, source)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	if mode != score.ModeAll {
		scores, err := a.scorer.ComputeScores(in.Text, cfg.Scoring.Query, cfg.Scoring.Buckets, cfg.Scoring.Normalize, mode)
		if err != nil {
			return err
		}
		return renderScores(cmd.OutOrStdout(), p.Renderer(), mode, scores, outJSON)
	}

	report, err := p.Score(in)
	if err != nil {
		return err
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Scored %d sentences in %d paragraphs\n", report.Sentences, report.Paragraphs)
	}

	if llmEnabled {
		methods, err := treatment.ParseMethods(treatNames)
		if err != nil {
			return err
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Applying %d treatment(s) with %s...\n", len(methods), a.provider.Name())
		}

		results, err := a.comparer().CompareTreatments(ctx, report, in.Text, methods)
		if err != nil {
			return fmt.Errorf("compare treatments: %w", err)
		}
		for _, r := range results {
			if r.Error != "" {
				a.logger.Warn("treatment failed", zap.String("method", r.Method), zap.String("error", r.Error))
			}
		}
		report.Treatments = results
	}

	return p.RenderReport(cmd.OutOrStdout(), report, outJSON, outMD, cfg.Output.Verbose)
}

func renderScores(w io.Writer, r *pipeline.Renderer, mode score.Mode, scores map[string]float64, jsonPath string) error {
	fmt.Fprintf(w, "📊 %s scores\n", mode)
	r.RenderScores(w, scores)

	if jsonPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(map[string]interface{}{
		"mode":   mode.String(),
		"scores": scores,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}
	return nil
}
