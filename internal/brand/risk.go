package brand

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/geoscore/internal/nlp"
	"github.com/ppiankov/geoscore/internal/score"
)

// NegativeTone is the risk flag raised for polarity below -0.2
const NegativeTone = "Negative tone"

// DefaultRiskKeywords are always checked
var DefaultRiskKeywords = []string{
	"scam",
	"lawsuit",
	"fraud",
	"controversial",
	"fake",
	"not trustworthy",
	"outdated",
}

// RiskKeywords returns the defaults followed by the custom keywords,
// lower-cased, trimmed and without repeats
func RiskKeywords(custom []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, kw := range append(append([]string{}, DefaultRiskKeywords...), custom...) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// Risks flags a negative tone and every keyword found in text
func Risks(text string, polarity float64, keywords []string) []string {
	var risks []string
	if polarity < -0.2 {
		risks = append(risks, NegativeTone)
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			risks = append(risks, kw)
		}
	}
	return risks
}

// ReputationScore is 50 + 25*polarity - 5*risks + 2*sources, clamped to
// [0, 100] and rounded to two decimals
func ReputationScore(polarity float64, risks, sources int) float64 {
	return score.Round2(clamp(50+25*polarity-5*float64(risks)+2*float64(sources), 0, 100))
}

// Keywords returns up to limit of the most frequent content words, compared
// case-insensitively, ties broken by first appearance
func Keywords(tokens []string, toolkit nlp.Toolkit, limit int) []string {
	type entry struct {
		word  string
		count int
		first int
	}
	counts := make(map[string]*entry)
	for i, tok := range tokens {
		key := strings.ToLower(tok)
		if len([]rune(key)) < 3 || !isWord(key) || toolkit.IsStopWord(key) {
			continue
		}
		if _, sentiment := lexicon[key]; sentiment {
			continue
		}
		if e, ok := counts[key]; ok {
			e.count++
			continue
		}
		counts[key] = &entry{word: tok, count: 1, first: i}
	}

	entries := make([]*entry, 0, len(counts))
	for _, e := range counts {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].first < entries[j].first
	})

	out := []string{}
	for i := 0; i < len(entries) && i < limit; i++ {
		out = append(out, entries[i].word)
	}
	return out
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '-' {
			return false
		}
	}
	return true
}
