package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/research"
	"github.com/ppiankov/geoscore/internal/score"
)

var (
	answerSources []string
	answerJSON    bool
)

// answerCmd represents the answer command
var answerCmd = &cobra.Command{
	Use:   "answer <query>",
	Short: "Generate a cited answer over sources and score it",
	Long: `Answer asks the configured LLM to answer a query using only the given
sources, numbered in the order passed. The answer cites them as [1], [2], ...
and is scored in citation mode with one bucket per source, showing how much
visibility each source would get.

Sources are files, "-" for stdin, or URLs.

Example:
  geoscore answer "what is laksa?" -s laksa.txt -s https://en.wikipedia.org/wiki/Laksa
  geoscore answer "best e-bikes" -s a.md -s b.md --llm-provider ollama --llm-model llama3 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)

	answerCmd.Flags().StringArrayVarP(&answerSources, "source", "s", nil, "source file, URL or - (repeatable, numbered in order)")
	answerCmd.Flags().BoolVar(&answerJSON, "json", false, "print JSON instead of text")
	answerCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout including fetch and LLM calls")
	_ = answerCmd.MarkFlagRequired("source")
}

func runAnswer(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if err := score.CheckBuckets(len(answerSources)); err != nil {
		return fmt.Errorf("sources: %w", err)
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLLM(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p := a.pipeline()
	sources := make([]string, len(answerSources))
	for i, src := range answerSources {
		in, err := p.Resolve(ctx, src)
		if err != nil {
			return fmt.Errorf("load source %d (%s): %w", i+1, src, err)
		}
		sources[i] = in.Text
	}

	answer, err := research.GenerateAnswer(ctx, a.provider, query, sources)
	if err != nil {
		return err
	}
	if missing := uncited(answer.Citations, len(sources)); len(missing) > 0 {
		a.logger.Debug("sources never cited", zap.Ints("sources", missing))
	}

	scores, err := a.scorer.ComputeScores(answer.Text, query, len(sources), a.cfg.Scoring.Normalize, score.ModeCitation)
	if err != nil {
		return err
	}
	visibility, err := a.scorer.CitationScores(answer.Text, len(sources))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if answerJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"answer":     answer,
			"scores":     scores,
			"visibility": visibility,
		})
	}

	fmt.Fprintf(out, "💬 %s\n\n%s\n\n", answer.Query, answer.Text)
	fmt.Fprintf(out, "👁  Visibility per source\n")
	for i, v := range visibility {
		fmt.Fprintf(out, "   [%d] %6.2f%%  %s\n", i+1, v, answerSources[i])
	}
	fmt.Fprintln(out)
	return renderScores(out, p.Renderer(), score.ModeCitation, scores, "")
}

// uncited lists the source numbers in [1, n] the answer never cites
func uncited(citations []int, n int) []int {
	cited := make(map[int]bool, len(citations))
	for _, c := range citations {
		cited[c] = true
	}
	var missing []int
	for i := 1; i <= n; i++ {
		if !cited[i] {
			missing = append(missing, i)
		}
	}
	return missing
}
