// Package brand reports how an LLM describes a brand: sentiment, risk
// flags, keywords, entities and a reputation score.
package brand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/geoscore/internal/llm"
	"github.com/ppiankov/geoscore/internal/nlp"
)

const (
	keywordCount = 5
	summaryRunes = 200
)

const descriptionPrompt = `You are a brand intelligence agent. Given a brand name, return structured data about it in the following JSON format.

Brand Name: {brand}

Respond only in the following JSON format (no explanation or markdown):

{
  "brand": "{brand}",
  "description": "<Concise summary of what the brand is, its domain, focus, and relevance>"
}

Use the phrase "What is the {brand} brand?" as the starting point for the summary.
Do not include any commentary, code block markers, or extra text outside the JSON object.`

var (
	// ErrNoProvider is returned by Analyze without an LLM
	ErrNoProvider = errors.New("no LLM provider configured")

	// ErrEmptyBrand is returned for a blank brand name
	ErrEmptyBrand = errors.New("brand name is required")
)

var entityLabels = map[nlp.Label]bool{
	nlp.LabelOrg:    true,
	nlp.LabelPerson: true,
	nlp.LabelGPE:    true,
}

// Report is the analysis of one brand description
type Report struct {
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Polarity    float64  `json:"polarity"`
	Sentiment   string   `json:"sentiment"`
	Risks       []string `json:"risks"`
	Keywords    []string `json:"keywords"`
	Entities    []string `json:"entities"`
	Persons     []string `json:"persons"`
	Sources     int      `json:"sources"`
	Reputation  float64  `json:"reputation"` // 0..100
}

// Analyzer asks an LLM to describe a brand and scores the description
type Analyzer struct {
	provider llm.Provider
	nlp      nlp.Toolkit
	keywords []string
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer checking DefaultRiskKeywords plus custom.
// provider may be nil when only AnalyzeDescription is used.
func NewAnalyzer(provider llm.Provider, toolkit nlp.Toolkit, custom []string, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		provider: provider,
		nlp:      toolkit,
		keywords: RiskKeywords(custom),
		logger:   logger,
	}
}

// RiskKeywords returns the keywords this analyzer flags
func (a *Analyzer) RiskKeywords() []string {
	return a.keywords
}

// WithKeywords returns a copy of a that also checks custom
func (a *Analyzer) WithKeywords(custom []string) *Analyzer {
	c := *a
	c.keywords = RiskKeywords(append(append([]string{}, a.keywords...), custom...))
	return &c
}

// Analyze asks the provider for a description of brand and analyzes it as
// a single source
func (a *Analyzer) Analyze(ctx context.Context, brand string) (*Report, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, ErrEmptyBrand
	}
	if a.provider == nil {
		return nil, ErrNoProvider
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Prompt: strings.ReplaceAll(descriptionPrompt, "{brand}", brand),
	})
	if err != nil {
		return nil, fmt.Errorf("describe brand: %w", err)
	}

	description := ParseDescription(resp.Content)
	if description == "" {
		return nil, fmt.Errorf("describe brand: empty reply")
	}

	report := a.AnalyzeDescription(brand, description, 1)
	a.logger.Debug("brand analyzed",
		zap.String("brand", brand),
		zap.Float64("reputation", report.Reputation),
		zap.Int("risks", len(report.Risks)))
	return report, nil
}

// ParseDescription pulls "description" out of a JSON reply. A reply that is
// not the expected JSON is used as the description itself.
func ParseDescription(reply string) string {
	body := llm.StripCodeFence(reply)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		var parsed struct {
			Description string `json:"description"`
		}
		if err := json.Unmarshal([]byte(body[start:end+1]), &parsed); err == nil {
			return strings.TrimSpace(parsed.Description)
		}
	}
	return strings.TrimSpace(body)
}

// AnalyzeDescription scores a description written from sources sources
func (a *Analyzer) AnalyzeDescription(brand, description string, sources int) *Report {
	var tokens []string
	var entities, persons []string
	seenEntity, seenPerson := map[string]bool{}, map[string]bool{}

	for _, para := range strings.Split(description, "\n") {
		for _, sent := range a.nlp.Sentences(para) {
			sentTokens := a.nlp.Tokens(sent)
			tokens = append(tokens, sentTokens...)

			for _, e := range a.nlp.Entities(sentTokens) {
				if !entityLabels[e.Label] {
					continue
				}
				if !seenEntity[e.Text] {
					seenEntity[e.Text] = true
					entities = append(entities, e.Text)
				}
				if e.Label == nlp.LabelPerson && !seenPerson[e.Text] {
					seenPerson[e.Text] = true
					persons = append(persons, e.Text)
				}
			}
		}
	}

	polarity := Polarity(tokens)
	risks := Risks(description, polarity, a.keywords)

	return &Report{
		Brand:       brand,
		Description: description,
		Summary:     summarize(description),
		Polarity:    polarity,
		Sentiment:   SentimentLabel(polarity),
		Risks:       nonNil(risks),
		Keywords:    Keywords(tokens, a.nlp, keywordCount),
		Entities:    nonNil(entities),
		Persons:     nonNil(persons),
		Sources:     sources,
		Reputation:  ReputationScore(polarity, len(risks), sources),
	}
}

func summarize(description string) string {
	s := strings.ReplaceAll(description, "\n", " ")
	if utf8.RuneCountInString(s) <= summaryRunes {
		return s
	}
	return string([]rune(s)[:summaryRunes]) + "..."
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
