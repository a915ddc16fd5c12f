package score

import (
	"math"
	"strings"

	"github.com/ppiankov/geoscore/internal/metrics"
	"github.com/ppiankov/geoscore/internal/model"
	"go.uber.org/zap"
)

// bucketGuard filters citation indices to [1, n] and warns once per
// distinct out-of-range index for the lifetime of one scoring call
type bucketGuard struct {
	n      int
	logger *zap.Logger
	seen   map[int]bool
}

func newBucketGuard(n int, logger *zap.Logger) *bucketGuard {
	return &bucketGuard{n: n, logger: logger, seen: make(map[int]bool)}
}

func (g *bucketGuard) valid(c int, metric Metric) bool {
	if c >= 1 && c <= g.n {
		return true
	}
	if !g.seen[c] {
		g.seen[c] = true
		metrics.HallucinatedCitations.Inc()
		g.logger.Warn("skipping hallucinated citation",
			zap.Int("citation", c),
			zap.Int("buckets", g.n),
			zap.String("metric", metric.String()))
	}
	return false
}

// hallucinated returns the out-of-range indices seen so far
func (g *bucketGuard) hallucinated() []int {
	out := make([]int, 0, len(g.seen))
	for c := range g.seen {
		out = append(out, c)
	}
	return uniqueSorted(out)
}

// rawFunc computes one un-normalized per-citation vector
type rawFunc func(s *Scorer, sents []model.Sentence, query string, g *bucketGuard) []float64

// rawMetrics is the fixed handler table behind Metric
var rawMetrics = map[Metric]rawFunc{
	MetricWordPosition:      (*Scorer).rawWordPosition,
	MetricWordOnly:          (*Scorer).rawWordOnly,
	MetricPositionOnly:      (*Scorer).rawPositionOnly,
	MetricRelevance:         (*Scorer).rawRelevance,
	MetricInfluence:         (*Scorer).rawInfluence,
	MetricFollowUp:          (*Scorer).rawFollowUp,
	MetricDiversity:         (*Scorer).rawDiversity,
	MetricUniqueness:        (*Scorer).rawUniqueness,
	MetricAuthoritativeness: (*Scorer).rawAuthoritativeness,
	MetricSourceability:     (*Scorer).rawSourceability,
	MetricUniquenessCited:   (*Scorer).rawUniquenessCited,
}

// Compute runs one metric over a segmented document
func (s *Scorer) Compute(metric Metric, doc model.Document, query string, n int, normalize bool) []float64 {
	fn, ok := rawMetrics[metric]
	if !ok || n < 1 {
		return make([]float64, max(n, 0))
	}
	return Normalize(fn(s, doc.Sentences(), query, s.guard(n)), normalize)
}

// WordPosition weights non-trivial word count by position decay
func (s *Scorer) WordPosition(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricWordPosition, doc, "", n, normalize)
}

// WordOnly accumulates non-trivial word count
func (s *Scorer) WordOnly(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricWordOnly, doc, "", n, normalize)
}

// PositionOnly accumulates position decay
func (s *Scorer) PositionOnly(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricPositionOnly, doc, "", n, normalize)
}

// Relevance accumulates the share of sentence tokens found in the query
func (s *Scorer) Relevance(doc model.Document, query string, n int, normalize bool) []float64 {
	return s.Compute(MetricRelevance, doc, query, n, normalize)
}

// Influence accumulates the size of the sentence/query token overlap
func (s *Scorer) Influence(doc model.Document, query string, n int, normalize bool) []float64 {
	return s.Compute(MetricInfluence, doc, query, n, normalize)
}

// FollowUp rewards citations with many sentences after them
func (s *Scorer) FollowUp(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricFollowUp, doc, "", n, normalize)
}

// Diversity is the type-token ratio of each bucket's pooled tokens
func (s *Scorer) Diversity(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricDiversity, doc, "", n, normalize)
}

// Uniqueness is the share of each bucket's vocabulary no other bucket uses
func (s *Scorer) Uniqueness(doc model.Document, n int, normalize bool) []float64 {
	return s.Compute(MetricUniqueness, doc, "", n, normalize)
}

// positionDecay returns exp(-i/L) with L = max(1, count-1)
func positionDecay(i, count int) float64 {
	l := max(1, count-1)
	return math.Exp(-float64(i) / float64(l))
}

// accumulate adds contribution(i, sentence)/len(citations) to every valid
// bucket a sentence cites. Out-of-range citations still count toward the
// divisor.
func accumulate(sents []model.Sentence, g *bucketGuard, metric Metric, contribution func(i int, sent model.Sentence) float64) []float64 {
	scores := make([]float64, g.n)
	for i, sent := range sents {
		if len(sent.Citations) == 0 {
			continue
		}
		share := contribution(i, sent) / float64(len(sent.Citations))
		for _, c := range sent.Citations {
			if g.valid(c, metric) {
				scores[c-1] += share
			}
		}
	}
	return scores
}

func (s *Scorer) rawWordPosition(sents []model.Sentence, _ string, g *bucketGuard) []float64 {
	return accumulate(sents, g, MetricWordPosition, func(i int, sent model.Sentence) float64 {
		return float64(wordCount(sent.Tokens)) * positionDecay(i, len(sents))
	})
}

func (s *Scorer) rawWordOnly(sents []model.Sentence, _ string, g *bucketGuard) []float64 {
	return accumulate(sents, g, MetricWordOnly, func(_ int, sent model.Sentence) float64 {
		return float64(wordCount(sent.Tokens))
	})
}

func (s *Scorer) rawPositionOnly(sents []model.Sentence, _ string, g *bucketGuard) []float64 {
	return accumulate(sents, g, MetricPositionOnly, func(i int, _ model.Sentence) float64 {
		return positionDecay(i, len(sents))
	})
}

func (s *Scorer) rawRelevance(sents []model.Sentence, query string, g *bucketGuard) []float64 {
	terms := s.relevanceTerms(query)
	return accumulate(sents, g, MetricRelevance, func(_ int, sent model.Sentence) float64 {
		if len(terms) == 0 {
			return 0
		}
		overlap := 0
		for _, t := range sent.Tokens {
			if terms[strings.ToLower(t)] {
				overlap++
			}
		}
		return float64(overlap) / float64(max(len(sent.Tokens), 1))
	})
}

func (s *Scorer) rawInfluence(sents []model.Sentence, query string, g *bucketGuard) []float64 {
	terms := s.influenceTerms(query)
	return accumulate(sents, g, MetricInfluence, func(_ int, sent model.Sentence) float64 {
		if len(terms) == 0 {
			return 0
		}
		shared := 0
		for t := range toSet(nonTrivialLower(sent.Tokens)) {
			if terms[t] {
				shared++
			}
		}
		return float64(shared)
	})
}

func (s *Scorer) rawFollowUp(sents []model.Sentence, _ string, g *bucketGuard) []float64 {
	return accumulate(sents, g, MetricFollowUp, func(i int, _ model.Sentence) float64 {
		return float64(len(sents) - i - 1)
	})
}

func (s *Scorer) rawDiversity(sents []model.Sentence, _ string, g *bucketGuard) []float64 {
	scores := make([]float64, g.n)
	for i, bag := range pooledTokens(sents, g, MetricDiversity) {
		if len(bag) > 0 {
			scores[i] = float64(len(toSet(bag))) / float64(len(bag))
		}
	}
	return scores
}

func (s *Scorer) rawUniqueness(sents []model.Sentence, _ string, g *bucketGuard) []float64 {
	bags := pooledTokens(sents, g, MetricUniqueness)

	sets := make([]map[string]bool, len(bags))
	usage := make(map[string]int) // buckets using each token
	for i, bag := range bags {
		sets[i] = toSet(bag)
		for t := range sets[i] {
			usage[t]++
		}
	}

	scores := make([]float64, g.n)
	for i, set := range sets {
		if len(set) == 0 {
			continue
		}
		own := 0
		for t := range set {
			if usage[t] == 1 {
				own++
			}
		}
		scores[i] = float64(own) / float64(len(set))
	}
	return scores
}

// pooledTokens gathers lower-cased non-trivial tokens per bucket. A sentence
// citing the same bucket twice contributes its tokens once.
func pooledTokens(sents []model.Sentence, g *bucketGuard, metric Metric) [][]string {
	bags := make([][]string, g.n)
	for _, sent := range sents {
		if len(sent.Citations) == 0 {
			continue
		}
		tokens := nonTrivialLower(sent.Tokens)
		for _, c := range uniqueSorted(sent.Citations) {
			if g.valid(c, metric) {
				bags[c-1] = append(bags[c-1], tokens...)
			}
		}
	}
	return bags
}

// relevanceTerms are the alphabetic non-stop-word tokens of the query
func (s *Scorer) relevanceTerms(query string) map[string]bool {
	terms := make(map[string]bool)
	if strings.TrimSpace(query) == "" {
		return terms
	}
	for _, t := range s.nlp.Tokens(strings.ToLower(query)) {
		if isAlpha(t) && !s.nlp.IsStopWord(t) {
			terms[t] = true
		}
	}
	return terms
}

// influenceTerms are the non-trivial, non-stop-word, non-punctuation
// tokens of the query
func (s *Scorer) influenceTerms(query string) map[string]bool {
	terms := make(map[string]bool)
	if strings.TrimSpace(query) == "" {
		return terms
	}
	for _, t := range nonTrivialLower(s.nlp.Tokens(query)) {
		if hasAlnum(t) && !s.nlp.IsStopWord(t) {
			terms[t] = true
		}
	}
	return terms
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
