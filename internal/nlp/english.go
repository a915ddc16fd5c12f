package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/segment"
)

var (
	// markerPrefix matches a citation marker at the start of the remaining text
	markerPrefix = regexp.MustCompile(`^\[[^\w\n]*\d+[^\w\n]*\]`)

	urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"'\[\]()]+`)
)

// English is the default Toolkit: punctuation-driven sentence boundaries,
// UAX#29 word segmentation and the bleve English stop list.
type English struct {
	stop analysis.TokenMap
}

// NewEnglish builds the English toolkit. Build it once and share it.
func NewEnglish() (*English, error) {
	stop := analysis.NewTokenMap()
	if err := stop.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, fmt.Errorf("load stop words: %w", err)
	}
	return &English{stop: stop}, nil
}

// IsStopWord reports whether a lower-cased token is an English stop word
func (e *English) IsStopWord(token string) bool {
	return e.stop[token]
}

// Sentences splits a paragraph at ., ? and ! followed by whitespace, end of
// text, or an upper-case letter. Citation markers trailing a terminator stay
// with the sentence they close.
func (e *English) Sentences(paragraph string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(paragraph); {
		r, size := utf8.DecodeRuneInString(paragraph[i:])
		if !isTerminator(r) {
			i += size
			continue
		}

		end := i + size
		for end < len(paragraph) {
			next, n := utf8.DecodeRuneInString(paragraph[end:])
			if !isTerminator(next) && !isCloser(next) {
				break
			}
			end += n
		}
		closed := end
		end = attachMarkers(paragraph, end)

		if isBoundary(paragraph, end) && (end > closed || !isAbbreviation(paragraph, i, closed)) {
			if s := strings.TrimSpace(paragraph[start:end]); s != "" {
				sentences = append(sentences, s)
			}
			start = end
		}
		i = end
	}

	if s := strings.TrimSpace(paragraph[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// Tokens splits a sentence into tokens. URLs stay whole; everything else is
// segmented on Unicode word boundaries with whitespace dropped.
func (e *English) Tokens(sentence string) []string {
	sentence = strings.ToValidUTF8(sentence, "\uFFFD")
	var tokens []string
	pos := 0

	for _, loc := range urlPattern.FindAllStringIndex(sentence, -1) {
		urlEnd := loc[0] + len(strings.TrimRight(sentence[loc[0]:loc[1]], ".,;:!?"))
		tokens = appendSegments(tokens, sentence[pos:loc[0]])
		tokens = append(tokens, sentence[loc[0]:urlEnd])
		pos = urlEnd
	}

	return appendSegments(tokens, sentence[pos:])
}

// Entities recognizes named entities in a token sequence
func (e *English) Entities(tokens []string) []Entity {
	return recognize(tokens, e.IsStopWord)
}

func appendSegments(tokens []string, text string) []string {
	if strings.TrimSpace(text) == "" {
		return tokens
	}

	seg := segment.NewWordSegmenterDirect([]byte(text))
	consumed := 0
	for seg.Segment() {
		tok := seg.Bytes()
		consumed += len(tok)
		if seg.Type() == segment.None && strings.TrimSpace(string(tok)) == "" {
			continue
		}
		tokens = append(tokens, string(tok))
	}

	if consumed < len(text) {
		// Segmenter stopped early; keep the rest as whitespace tokens
		return append(tokens, strings.Fields(text[consumed:])...)
	}

	return tokens
}

// attachMarkers extends end over whitespace-separated citation markers
func attachMarkers(text string, end int) int {
	for {
		m := end
		for m < len(text) {
			r, n := utf8.DecodeRuneInString(text[m:])
			if !unicode.IsSpace(r) {
				break
			}
			m += n
		}

		loc := markerPrefix.FindStringIndex(text[m:])
		if loc == nil {
			return end
		}
		end = m + loc[1]
	}
}

// abbreviations never end a sentence; keys are lower-cased without the final dot
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"e.g": true, "i.e": true, "u.s": true, "u.k": true, "fig": true,
}

// isAbbreviation reports whether the single dot at dot, closing the run that
// ends at end, belongs to an abbreviation or an initialism like "U.S."
func isAbbreviation(text string, dot, end int) bool {
	if text[dot] != '.' || end != dot+1 || end >= len(text) {
		return false
	}

	start := dot
	for start > 0 {
		r, n := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start -= n
	}
	word := text[start:dot]
	if abbreviations[strings.ToLower(word)] {
		return true
	}

	// "U.S": a lone capital followed directly by another letter
	next, _ := utf8.DecodeRuneInString(text[end:])
	first, size := utf8.DecodeRuneInString(word)
	return size == len(word) && unicode.IsUpper(first) && unicode.IsLetter(next)
}

func isBoundary(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.IsSpace(r) || unicode.IsUpper(r)
}

func isTerminator(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', '”', '’':
		return true
	}
	return false
}
