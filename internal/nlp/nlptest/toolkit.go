// Package nlptest provides a scripted nlp.Toolkit for tests.
package nlptest

import (
	"strings"

	"github.com/ppiankov/geoscore/internal/nlp"
)

// Toolkit splits sentences on "|" and tokens on whitespace. Entities are
// looked up token by token in Labels.
type Toolkit struct {
	Stop   map[string]bool
	Labels map[string]nlp.Label
}

// Sentences splits on the "|" separator
func (t *Toolkit) Sentences(paragraph string) []string {
	var out []string
	for _, s := range strings.Split(paragraph, "|") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Tokens splits on whitespace
func (t *Toolkit) Tokens(sentence string) []string {
	return strings.Fields(sentence)
}

// Entities labels every token found in Labels
func (t *Toolkit) Entities(tokens []string) []nlp.Entity {
	var out []nlp.Entity
	for i, tok := range tokens {
		if label, ok := t.Labels[tok]; ok {
			out = append(out, nlp.Entity{Text: tok, Label: label, Start: i, End: i + 1})
		}
	}
	return out
}

// IsStopWord consults Stop
func (t *Toolkit) IsStopWord(token string) bool {
	return t.Stop[token]
}
