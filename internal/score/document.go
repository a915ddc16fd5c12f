package score

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/nlp"
)

var urlToken = regexp.MustCompile(`(?i)^(?:https?://|www\.)\S+$`)

// OverallAuthoritativeness scores sentence length and lexical variety in [0, 1]
func (s *Scorer) OverallAuthoritativeness(doc model.Document) float64 {
	v, _ := s.calculateAuthoritativeness(doc.Sentences())
	return v
}

// OverallSourceability scores numeric, entity and URL density in [0, 1]
func (s *Scorer) OverallSourceability(doc model.Document) float64 {
	v, _ := s.calculateSourceability(doc.Sentences())
	return v
}

// OverallUniqueness scores lexical variety, length variation and trigram
// redundancy in [0, 1]
func (s *Scorer) OverallUniqueness(doc model.Document) float64 {
	v, _ := s.calculateUniqueness(doc.Sentences())
	return v
}

// calculateAuthoritativeness averages a length score and a type-token score.
// Both are halved when either is below 0.7.
func (s *Scorer) calculateAuthoritativeness(sents []model.Sentence) (float64, model.Signal) {
	if len(sents) == 0 {
		return 0, emptySignal(model.SignalAuthoritativeness)
	}

	tokens := 0
	for _, sent := range sents {
		tokens += len(sent.Tokens)
	}
	avgLength := float64(tokens) / float64(len(sents))
	lengthScore := math.Min(avgLength/30, 1)

	ttr := typeTokenRatio(sents)
	ttrScore := math.Min(ttr/0.7, 1)

	penalized := lengthScore < 0.7 || ttrScore < 0.7
	if penalized {
		lengthScore *= 0.5
		ttrScore *= 0.5
	}
	score := clamp01(0.5*lengthScore + 0.5*ttrScore)

	return score, model.Signal{
		Type:        model.SignalAuthoritativeness,
		Severity:    severityFor(score),
		Description: fmt.Sprintf("Average sentence length %.1f tokens, type-token ratio %.2f", avgLength, ttr),
		Data: map[string]interface{}{
			"sentences":          len(sents),
			"avg_sentence_len":   avgLength,
			"type_token_ratio":   ttr,
			"length_score":       lengthScore,
			"ttr_score":          ttrScore,
			"weak_signal_halved": penalized,
			"score":              score,
			"formula":            "0.5*min(avg_len/30,1) + 0.5*min(ttr/0.7,1), both halved if either < 0.7",
		},
	}
}

// calculateSourceability sums numeric, entity and URL densities per sentence
func (s *Scorer) calculateSourceability(sents []model.Sentence) (float64, model.Signal) {
	if len(sents) == 0 {
		return 0, emptySignal(model.SignalSourceability)
	}

	numbers, entities, urls := 0, 0, 0
	for _, sent := range sents {
		markers := markerTokens(sent.Tokens)
		for i, t := range sent.Tokens {
			switch {
			case markers[i]:
			case urlToken.MatchString(t):
				urls++
			case isNumeric(t):
				numbers++
			}
		}
		for _, e := range s.nlp.Entities(sent.Tokens) {
			if nlp.SourceLabels[e.Label] {
				entities++
			}
		}
	}

	count := float64(len(sents))
	score := clamp01(0.4*float64(numbers)/count + 0.4*float64(entities)/count + 0.2*float64(urls)/count)

	return score, model.Signal{
		Type:        model.SignalSourceability,
		Severity:    severityFor(score),
		Description: fmt.Sprintf("%d numbers, %d named entities, %d URLs across %d sentences", numbers, entities, urls, len(sents)),
		Data: map[string]interface{}{
			"sentences": len(sents),
			"numbers":   numbers,
			"entities":  entities,
			"urls":      urls,
			"score":     score,
			"formula":   "min((0.4*numbers + 0.4*entities + 0.2*urls) / sentences, 1), citation markers excluded",
		},
	}
}

// calculateUniqueness blends a rescaled type-token ratio with sentence length
// variation, then discounts by trigram redundancy
func (s *Scorer) calculateUniqueness(sents []model.Sentence) (float64, model.Signal) {
	if len(sents) == 0 {
		return 0, emptySignal(model.SignalUniqueness)
	}

	ttr := typeTokenRatio(sents)
	ttrScore := clamp01((ttr - 0.5) / 0.4)

	lengths := make([]float64, len(sents))
	var stream []string
	for i, sent := range sents {
		lengths[i] = float64(len(sent.Tokens))
		for _, t := range sent.Tokens {
			stream = append(stream, strings.ToLower(t))
		}
	}
	cv := variationCoefficient(lengths)
	variationScore := clamp01((cv - 0.3) / 1.5)

	penalty := redundancyPenalty(stream)
	score := clamp01((0.6*ttrScore + 0.4*variationScore) * (1 - penalty))

	return score, model.Signal{
		Type:        model.SignalUniqueness,
		Severity:    severityFor(score),
		Description: fmt.Sprintf("Type-token ratio %.2f, length variation %.2f, trigram redundancy %.2f", ttr, cv, penalty),
		Data: map[string]interface{}{
			"type_token_ratio":   ttr,
			"ttr_score":          ttrScore,
			"length_variation":   cv,
			"variation_score":    variationScore,
			"redundancy_penalty": penalty,
			"score":              score,
			"formula":            "(0.6*clamp((ttr-0.5)/0.4) + 0.4*clamp((cv-0.3)/1.5)) * (1 - redundancy)",
		},
	}
}

// typeTokenRatio is distinct over total lower-cased non-trivial tokens
func typeTokenRatio(sents []model.Sentence) float64 {
	var all []string
	for _, sent := range sents {
		all = append(all, nonTrivialLower(sent.Tokens)...)
	}
	if len(all) == 0 {
		return 0
	}
	return float64(len(toSet(all))) / float64(len(all))
}

// variationCoefficient is the population standard deviation over the mean
func variationCoefficient(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / mean
}

// redundancyPenalty is the count of the most frequent trigram over the
// number of trigrams. Zero below three tokens.
func redundancyPenalty(tokens []string) float64 {
	if len(tokens) < 3 {
		return 0
	}

	counts := make(map[[3]string]int)
	top := 0
	for i := 0; i+2 < len(tokens); i++ {
		key := [3]string{tokens[i], tokens[i+1], tokens[i+2]}
		counts[key]++
		top = max(top, counts[key])
	}

	return float64(top) / float64(len(tokens)-2)
}

func severityFor(score float64) model.SignalSeverity {
	switch {
	case score < 0.3:
		return model.SeverityCritical
	case score < 0.6:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

func emptySignal(t model.SignalType) model.Signal {
	return model.Signal{
		Type:        t,
		Severity:    model.SeverityCritical,
		Description: "No sentences to score",
		Data:        map[string]interface{}{"sentences": 0, "score": 0.0},
	}
}
