package score

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var citationToken = regexp.MustCompile(`^\[[^\w\s]*\d+[^\w\s]*\]$`)

// nonTrivial filters out short tokens and most punctuation
func nonTrivial(tok string) bool {
	return utf8.RuneCountInString(tok) > 2
}

func wordCount(tokens []string) int {
	n := 0
	for _, t := range tokens {
		if nonTrivial(t) {
			n++
		}
	}
	return n
}

// nonTrivialLower returns the lower-cased non-trivial tokens in order
func nonTrivialLower(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if nonTrivial(t) {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

func isAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func hasAlnum(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// isNumeric matches tokens such as 42, 3.5, 1,200 and 12%
func isNumeric(tok string) bool {
	digits := 0
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == '%':
		default:
			return false
		}
	}
	return digits > 0
}

// markerTokens flags the tokens that make up citation markers: a "[" ... "]"
// run holding digits and punctuation only, or a single "[1]"-style token
func markerTokens(tokens []string) []bool {
	marked := make([]bool, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if citationToken.MatchString(tokens[i]) {
			marked[i] = true
			continue
		}
		if !strings.HasPrefix(tokens[i], "[") {
			continue
		}

		digits := false
		for j := i + 1; j < len(tokens); j++ {
			tok := tokens[j]
			if strings.ContainsFunc(tok, unicode.IsLetter) {
				break
			}
			if isNumeric(tok) {
				digits = true
				continue
			}
			if strings.HasPrefix(tok, "]") {
				if digits {
					for k := i; k <= j; k++ {
						marked[k] = true
					}
					i = j
				}
				break
			}
			if hasAlnum(tok) {
				break
			}
		}
	}
	return marked
}

// uniqueSorted returns the distinct values of ints in ascending order
func uniqueSorted(ints []int) []int {
	seen := make(map[int]bool, len(ints))
	var out []int
	for _, v := range ints {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
