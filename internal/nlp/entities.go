package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var personTitles = map[string]bool{
	"Mr": true, "Mrs": true, "Ms": true, "Dr": true, "Prof": true, "Professor": true,
	"Sir": true, "Dame": true, "President": true, "Senator": true, "Judge": true,
}

var orgSuffixes = map[string]bool{
	"Inc": true, "Corp": true, "Corporation": true, "Ltd": true, "LLC": true,
	"Company": true, "University": true, "Institute": true, "Agency": true,
	"Association": true, "Foundation": true, "Bank": true, "Group": true,
	"Council": true, "Ministry": true, "Department": true, "Committee": true,
	"Organization": true, "Organisation": true, "Party": true, "Times": true,
	"News": true, "Labs": true, "College": true, "Society": true,
}

var eventWords = map[string]bool{
	"War": true, "Summit": true, "Olympics": true, "Games": true, "Cup": true,
	"Conference": true, "Festival": true, "Championship": true,
	"Revolution": true, "Election": true, "Expo": true, "Week": true,
}

var places = map[string]bool{
	"america": true, "united states": true, "usa": true, "us": true, "uk": true,
	"united kingdom": true, "britain": true, "england": true, "scotland": true,
	"wales": true, "ireland": true, "france": true, "germany": true, "spain": true,
	"italy": true, "portugal": true, "netherlands": true, "belgium": true,
	"sweden": true, "norway": true, "denmark": true, "finland": true,
	"poland": true, "ukraine": true, "russia": true, "china": true, "japan": true,
	"korea": true, "india": true, "pakistan": true, "indonesia": true,
	"malaysia": true, "thailand": true, "vietnam": true, "singapore": true,
	"australia": true, "canada": true, "mexico": true, "brazil": true,
	"argentina": true, "chile": true, "egypt": true, "nigeria": true,
	"kenya": true, "africa": true, "europe": true, "asia": true,
	"london": true, "paris": true, "berlin": true, "madrid": true, "rome": true,
	"tokyo": true, "beijing": true, "delhi": true, "mumbai": true,
	"new york": true, "california": true, "texas": true, "washington": true,
	"chicago": true, "boston": true, "seattle": true, "sydney": true,
	"toronto": true,
}

var openQuotes = map[string]bool{`"`: true, "“": true}
var closeQuotes = map[string]bool{`"`: true, "”": true}

// recognize finds capitalized token runs and labels them with gazetteer and
// suffix rules.
func recognize(tokens []string, isStop func(string) bool) []Entity {
	var entities []Entity

	for i := 0; i < len(tokens); {
		if !isCapitalized(tokens[i]) {
			i++
			continue
		}

		j := i + 1
		for j < len(tokens) {
			if isCapitalized(tokens[j]) {
				j++
				continue
			}
			// Connectors stay inside a run when another capitalized token follows
			if (tokens[j] == "of" || tokens[j] == "&") && j+1 < len(tokens) && isCapitalized(tokens[j+1]) {
				j += 2
				continue
			}
			break
		}

		start := i
		initial := i == 0 || isOpener(tokens[i-1])
		if initial && isStop(strings.ToLower(tokens[i])) {
			start++
		}
		loneInitial := initial && start == i && j-start == 1
		i = j

		if start >= j {
			continue
		}

		span := tokens[start:j]
		label, ok := classify(tokens, start, j, loneInitial)
		if !ok {
			continue
		}

		entities = append(entities, Entity{
			Text:  strings.Join(span, " "),
			Label: label,
			Start: start,
			End:   j,
		})
	}

	return entities
}

// classify labels tokens[start:end]. A lone sentence-initial word is only
// an entity when a gazetteer or suffix rule claims it.
func classify(tokens []string, start, end int, loneInitial bool) (Label, bool) {
	span := tokens[start:end]
	first, last := span[0], span[len(span)-1]
	joined := strings.ToLower(strings.Join(span, " "))

	switch {
	case personTitles[first] && len(span) > 1:
		return LabelPerson, true
	case places[joined] || places[strings.ToLower(last)]:
		return LabelGPE, true
	case orgSuffixes[last]:
		return LabelOrg, true
	case len(span) == 1 && isAcronym(first):
		return LabelOrg, true
	case eventWords[last]:
		return LabelEvent, true
	case end < len(tokens) && isVersion(tokens[end]):
		return LabelProduct, true
	case start > 0 && openQuotes[tokens[start-1]] && end < len(tokens) && closeQuotes[tokens[end]]:
		return LabelWorkOfArt, true
	case loneInitial:
		return "", false
	case len(span) >= 2 && len(span) <= 3:
		return LabelPerson, true
	default:
		return LabelOrg, true
	}
}

func isCapitalized(tok string) bool {
	if utf8.RuneCountInString(tok) < 2 {
		return false
	}
	for i, r := range tok {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func isAcronym(tok string) bool {
	if len(tok) < 2 || len(tok) > 6 {
		return false
	}
	for _, r := range tok {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isVersion(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return unicode.IsDigit(rune(tok[0]))
}

func isOpener(tok string) bool {
	switch tok {
	case ".", "!", "?", `"`, "“", "(", "[", ":", ";", "]":
		return true
	}
	return false
}
