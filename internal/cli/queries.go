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
)

var queriesJSON bool

// queriesCmd represents the queries command
var queriesCmd = &cobra.Command{
	Use:   "queries <topic>",
	Short: "List questions users ask assistants about a topic",
	Long: `Queries asks the configured LLM for the questions users commonly put to
chat assistants about a topic and labels each with its intent
(Informational, Navigational, Transactional or Unknown). Without an LLM,
or when the reply cannot be parsed, a fixed template list is used.

Example:
  geoscore queries laksa
  geoscore queries "electric bikes" --llm-provider ollama --llm-model llama3 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQueries,
}

func init() {
	rootCmd.AddCommand(queriesCmd)

	queriesCmd.Flags().BoolVar(&queriesJSON, "json", false, "print JSON instead of a table")
}

func runQueries(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(a.cfg.LLM.Timeout)*time.Second)
	defer cancel()

	queries, err := research.RelatedQueries(ctx, a.provider, topic)
	fallback := err != nil
	if fallback {
		a.logger.Warn("using template queries", zap.String("topic", topic), zap.Error(err))
	}
	insights := research.Classify(queries)

	out := cmd.OutOrStdout()
	if queriesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"topic":    topic,
			"queries":  insights,
			"fallback": fallback,
		})
	}

	fmt.Fprintf(out, "🔎 %s\n", topic)
	if fallback {
		fmt.Fprintf(out, "   (template questions; no LLM answer)\n")
	}
	for i, in := range insights {
		fmt.Fprintf(out, "   %d. %-60s %s\n", i+1, in.Query, in.Intent)
	}
	return nil
}
