package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/extract/adapters"
	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/worker"
)

// DocumentScorer scores raw text. *score.Scorer and *score.CachedScorer
// both satisfy it.
type DocumentScorer interface {
	ScoreDocument(text, query string, n int, normalize bool) (*model.ScoreReport, error)
}

// Pipeline resolves input sources to text and scores them
type Pipeline struct {
	fetcher  *Fetcher
	adapters *adapters.Registry
	scorer   DocumentScorer
	renderer *Renderer
	config   *model.Config
	logger   *zap.Logger
	stdin    io.Reader
}

// NewPipeline wires a pipeline. fetcher may be nil when URL inputs are not
// needed.
func NewPipeline(cfg *model.Config, scorer DocumentScorer, fetcher *Fetcher, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:  fetcher,
		adapters: adapters.NewRegistry(),
		scorer:   scorer,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
		logger:   logger,
		stdin:    os.Stdin,
	}
}

// SetStdin replaces the reader used for the "-" source
func (p *Pipeline) SetStdin(r io.Reader) {
	p.stdin = r
}

// Renderer returns the pipeline's report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Input is text ready for scoring plus where it came from
type Input struct {
	Text    string
	Subject string
	Adapter string
	Sources map[int]string
}

// Resolve loads a source: "-" for stdin, an http(s) URL, or a file path.
// HTML files and pages are reduced to visible text.
func (p *Pipeline) Resolve(ctx context.Context, source string) (*Input, error) {
	maxChars := p.config.Scoring.MaxInputChars

	if worker.IsURL(source) {
		return p.resolveURL(ctx, source)
	}

	if isHTMLFile(source) {
		raw, err := LoadFile(source, p.stdin, int(p.config.HTTP.MaxBodyBytes))
		if err != nil {
			return nil, err
		}
		content, err := p.adapters.Extract(raw, "")
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		if err := CheckInput(content.Text, maxChars); err != nil {
			return nil, err
		}
		return &Input{
			Text:    content.Text,
			Subject: subjectForFile(source),
			Adapter: content.Adapter,
			Sources: content.Sources,
		}, nil
	}

	text, err := LoadFile(source, p.stdin, maxChars)
	if err != nil {
		return nil, err
	}
	return &Input{Text: text, Subject: subjectForFile(source)}, nil
}

func (p *Pipeline) resolveURL(ctx context.Context, rawURL string) (*Input, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("URL inputs are not enabled")
	}

	page, err := p.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	if page.IsPlainText() {
		if err := CheckInput(page.HTML, p.config.Scoring.MaxInputChars); err != nil {
			return nil, err
		}
		return &Input{Text: page.HTML, Subject: page.Subject}, nil
	}

	content, err := p.adapters.Extract(page.HTML, page.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if err := CheckInput(content.Text, p.config.Scoring.MaxInputChars); err != nil {
		return nil, err
	}

	p.logger.Debug("extracted page",
		zap.String("url", page.FinalURL),
		zap.String("adapter", content.Adapter),
		zap.Int("sources", len(content.Sources)))

	return &Input{
		Text:    content.Text,
		Subject: page.Subject,
		Adapter: content.Adapter,
		Sources: content.Sources,
	}, nil
}

// Score scores resolved input with the configured buckets and query
func (p *Pipeline) Score(in *Input) (*model.ScoreReport, error) {
	sc := p.config.Scoring
	report, err := p.scorer.ScoreDocument(in.Text, sc.Query, sc.Buckets, sc.Normalize)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	report.Subject = in.Subject
	report.Adapter = in.Adapter
	report.Sources = in.Sources
	return report, nil
}

// ScoreSource resolves and scores one source. It satisfies worker.Scorer.
func (p *Pipeline) ScoreSource(ctx context.Context, source string) (*model.ScoreReport, error) {
	in, err := p.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	return p.Score(in)
}

// RenderReport renders the report to the requested files and prints the
// terminal summary to w
func (p *Pipeline) RenderReport(w io.Writer, report *model.ScoreReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(w, report)
	return nil
}
