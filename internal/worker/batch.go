package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/model"
)

// Scorer scores one input source: a file path, "-" for stdin, or a URL
type Scorer interface {
	ScoreSource(ctx context.Context, source string) (*model.ScoreReport, error)
}

// ScoreJob scores a single source
type ScoreJob struct {
	Source string
	Scorer Scorer
	index  int
}

// Execute runs the scorer on the job's source
func (j *ScoreJob) Execute(ctx context.Context) Result {
	started := time.Now()
	report, err := j.Scorer.ScoreSource(ctx, j.Source)
	return &ScoreResult{
		Source:   j.Source,
		Report:   report,
		Error:    err,
		Duration: time.Since(started),
		index:    j.index,
	}
}

// ScoreResult is the outcome of one batch entry
type ScoreResult struct {
	Source   string
	Report   *model.ScoreReport
	Error    error
	Duration time.Duration
	index    int
}

// GetError returns the error from the score result
func (r *ScoreResult) GetError() error {
	return r.Error
}

// BatchProcessor scores many sources concurrently
type BatchProcessor struct {
	scorer      Scorer
	concurrency int
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scorer Scorer, concurrency int, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		scorer:      scorer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessSources scores every source and returns results in input order.
// Sources left unscored because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*ScoreResult {
	if len(sources) == 0 {
		return []*ScoreResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := 0
	for i, source := range sources {
		if err := pool.Submit(&ScoreJob{Source: source, Scorer: b.scorer, index: i}); err != nil {
			b.logger.Warn("batch submission stopped", zap.Error(err), zap.Int("submitted", submitted))
			break
		}
		submitted++
	}

	results := pool.Wait()

	scoreResults := make([]*ScoreResult, len(sources))
	for _, result := range results {
		r := result.(*ScoreResult)
		scoreResults[r.index] = r
	}
	for i, r := range scoreResults {
		if r != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = ErrPoolClosed
		}
		scoreResults[i] = &ScoreResult{Source: sources[i], Error: err, index: i}
	}

	failed := 0
	for _, r := range scoreResults {
		if r.Error != nil {
			failed++
			b.logger.Debug("batch entry failed", zap.String("source", r.Source), zap.Error(r.Error))
		}
	}
	b.logger.Info("batch complete",
		zap.Int("sources", len(sources)),
		zap.Int("failed", failed),
		zap.Int("workers", b.concurrency))

	return scoreResults
}

// ProcessFile reads sources from a list file and scores them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScoreResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads a list file. Relative file entries resolve
// against the list file's directory.
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	sources, err := ReadSources(file)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(filePath)
	for i, s := range sources {
		if !IsURL(s) && !filepath.IsAbs(s) {
			sources[i] = filepath.Join(base, s)
		}
	}
	return sources, nil
}

// ReadSources reads one source per line, skipping blanks, comments and
// duplicates
func ReadSources(r io.Reader) ([]string, error) {
	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}

	return sources, nil
}

// IsURL reports whether a source names an http(s) URL
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
