package research

import (
	"strings"
	"unicode"
)

// Intent is the purpose behind a search query
type Intent string

const (
	Informational Intent = "Informational"
	Navigational  Intent = "Navigational"
	Transactional Intent = "Transactional"
	Unknown       Intent = "Unknown"
)

// intentRules are checked in order; the first list with a matching word wins
var intentRules = []struct {
	intent Intent
	words  map[string]bool
}{
	{Informational, map[string]bool{"what": true, "how": true, "why": true, "explain": true}},
	{Navigational, map[string]bool{"where": true, "contact": true, "login": true, "support": true}},
	{Transactional, map[string]bool{"buy": true, "price": true, "order": true, "download": true}},
}

// ClassifyIntent labels a query by its keywords. Matching is on whole words,
// so "somehow" is not informational.
func ClassifyIntent(query string) Intent {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for _, rule := range intentRules {
		for _, w := range words {
			if rule.words[w] {
				return rule.intent
			}
		}
	}
	return Unknown
}

// Insight pairs a related query with its intent
type Insight struct {
	Query  string `json:"query"`
	Intent Intent `json:"intent"`
}

// Classify labels each query
func Classify(queries []string) []Insight {
	insights := make([]Insight, len(queries))
	for i, q := range queries {
		insights[i] = Insight{Query: q, Intent: ClassifyIntent(q)}
	}
	return insights
}
