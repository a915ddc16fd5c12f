package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/treatment"
)

var treatOutput string

// treatCmd represents the treat command
var treatCmd = &cobra.Command{
	Use:   "treat <method> [file|-]",
	Short: "Build or apply a content treatment",
	Long: `Treat builds the rewrite prompt for one content treatment. With --llm
the prompt is sent to the configured provider, the rewrite is printed and
its scores are compared with the original's.

Methods: ` + strings.Join(treatment.Names(), ", ") + `

Example:
  geoscore treat fluency answer.txt
  geoscore treat stats answer.txt --llm --llm-provider openai --llm-model gpt-4o-mini
  cat answer.txt | geoscore treat quotation - --llm --out rewritten.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTreat,
}

func init() {
	rootCmd.AddCommand(treatCmd)

	treatCmd.Flags().BoolVar(&llmEnabled, "llm", false, "send the prompt to the configured LLM and score the rewrite")
	treatCmd.Flags().StringVar(&treatOutput, "out", "", "write the rewritten content to a file")
	treatCmd.Flags().StringVarP(&scoreQuery, "query", "q", "", "query for the Relevance and Influence metrics")
	treatCmd.Flags().IntVarP(&scoreBuckets, "buckets", "n", 5, "highest citation index tracked")
	treatCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for the LLM call")
}

func runTreat(cmd *cobra.Command, args []string) error {
	method, err := treatment.ParseMethod(args[0])
	if err != nil {
		return err
	}

	source := pipeline.StdinSource
	if len(args) == 2 {
		source = args[1]
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

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, a.docs, nil, a.logger)
	in, err := p.Resolve(ctx, source)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	out := cmd.OutOrStdout()
	if !llmEnabled {
		prompt, err := treatment.BuildPrompt(method, in.Text)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, prompt)
		return nil
	}

	if err := a.requireLLM(); err != nil {
		return err
	}

	original, err := p.Score(in)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Applying %s with %s...\n", method, a.provider.Name())
	results, err := a.comparer().CompareTreatments(ctx, original, in.Text, []treatment.Method{method})
	if err != nil {
		return fmt.Errorf("compare treatments: %w", err)
	}
	result := results[0]
	if result.Error != "" {
		return fmt.Errorf("%s treatment failed: %s", method, result.Error)
	}

	if treatOutput != "" {
		if err := os.WriteFile(treatOutput, []byte(result.Content+"\n"), 0644); err != nil {
			return fmt.Errorf("write %s: %w", treatOutput, err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote rewrite: %s\n", treatOutput)
	} else {
		fmt.Fprintln(out, result.Content)
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "📊 %s: change in percentage points\n", method)
	p.Renderer().RenderScores(out, result.Delta)
	return nil
}
