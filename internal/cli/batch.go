package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/pipeline"
	"github.com/ppiankov/geoscore/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// scoreQuery, scoreBuckets, scoreRaw, noCache and noFooter are shared with score.go
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file>",
	Short: "Score many answers listed in a file in parallel",
	Long: `Batch scores every file path or URL listed in a file, one per line.
Blank lines and lines starting with # are skipped. Relative paths resolve
against the list file's directory. Each entry gets a JSON and a Markdown
report in the output directory, and index.json summarises the run.

Example:
  geoscore batch answers.txt
  geoscore batch answers.txt --concurrency 8 --output-dir ./reports
  geoscore batch urls.txt --query "laksa recipe" --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./geoscore-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Inherit scoring flags from the score command
	batchCmd.Flags().StringVarP(&scoreQuery, "query", "q", "", "query for the Relevance and Influence metrics")
	batchCmd.Flags().IntVarP(&scoreBuckets, "buckets", "n", 5, "highest citation index tracked")
	batchCmd.Flags().BoolVar(&scoreRaw, "raw", false, "report raw vectors instead of distributions")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch and scoring)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
}

// batchEntry is one line of the batch index
type batchEntry struct {
	Source            string  `json:"source"`
	Report            string  `json:"report,omitempty"`
	Error             string  `json:"error,omitempty"`
	Sentences         int     `json:"sentences,omitempty"`
	Authoritativeness float64 `json:"authoritativeness,omitempty"`
	Hallucinated      int     `json:"hallucinated,omitempty"`
	DurationMS        int64   `json:"duration_ms"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	listFile := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := scoringConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") || cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = concurrency
	}

	a, err := newAppWithConfig(cfg, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Scoring %s with %d workers (n=%d) into %s\n\n",
		listFile, cfg.Concurrency.Workers, cfg.Scoring.Buckets, outputDir)

	p := a.pipeline()
	results, err := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, a.logger).ProcessFile(ctx, listFile)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	entries := make([]batchEntry, 0, len(results))
	failed := 0
	for i, result := range results {
		entry := batchEntry{Source: result.Source, DurationMS: result.Duration.Milliseconds()}
		if result.Error == nil {
			entry.Report, result.Error = writeBatchReport(p.Renderer(), i+1, result.Report)
		}
		if result.Error != nil {
			failed++
			entry.Error = result.Error.Error()
			a.logger.Warn("batch entry failed", zap.String("source", result.Source), zap.Error(result.Error))
		} else {
			entry.Sentences = result.Report.Sentences
			entry.Authoritativeness = result.Report.Summary["Overall Authoritativeness"]
			entry.Hallucinated = len(result.Report.Hallucinated)
		}
		entries = append(entries, entry)
	}

	if err := writeJSONFile(filepath.Join(outputDir, "index.json"), entries); err != nil {
		return err
	}
	printBatchTable(cmd.OutOrStdout(), entries)

	fmt.Fprintf(os.Stderr, "\n%d scored, %d failed. Index: %s\n",
		len(entries)-failed, failed, filepath.Join(outputDir, "index.json"))

	if failed > 0 && failed == len(entries) {
		return fmt.Errorf("all %d sources failed", failed)
	}
	return nil
}

// writeBatchReport writes the JSON and Markdown reports for entry n and
// returns the JSON path
func writeBatchReport(r *pipeline.Renderer, n int, report *model.ScoreReport) (string, error) {
	slug := fmt.Sprintf("%03d-%s", n, sanitizeFilename(report.Subject))
	jsonPath := filepath.Join(outputDir, slug+".json")
	if err := r.RenderJSON(report, jsonPath); err != nil {
		return "", fmt.Errorf("write JSON report: %w", err)
	}
	if err := r.RenderMarkdown(report, filepath.Join(outputDir, slug+".md")); err != nil {
		return "", fmt.Errorf("write Markdown report: %w", err)
	}
	return jsonPath, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printBatchTable(w io.Writer, entries []batchEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tSOURCE\tSENTENCES\tAUTHORITATIVENESS\tHALLUCINATED\tTIME")
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(tw, "✗\t%s\t-\t-\t-\t%s\n", e.Source, e.Error)
			continue
		}
		fmt.Fprintf(tw, "✓\t%s\t%d\t%.2f%%\t%d\t%dms\n",
			e.Source, e.Sentences, e.Authoritativeness, e.Hallucinated, e.DurationMS)
	}
	_ = tw.Flush()
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename turns a report subject into a safe file name
func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(filepath.Base(filepath.Clean(s)), filepath.Ext(s))
	s = filenameReplacer.Replace(s)
	if s == "" || s == "." {
		s = "report"
	}

	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
