package brand

import (
	"fmt"
	"strings"
)

// lexicon holds word polarities in [-1, 1]
var lexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "best": 1.0, "better": 0.5,
	"leading": 0.4, "innovative": 0.5, "popular": 0.6, "trusted": 0.6,
	"reliable": 0.6, "reputable": 0.6, "successful": 0.75, "strong": 0.43,
	"quality": 0.4, "renowned": 0.6, "famous": 0.5, "award-winning": 0.8,
	"favorite": 0.5, "favourite": 0.5, "love": 0.5, "loved": 0.7,
	"amazing": 0.6, "wonderful": 1.0, "delicious": 1.0, "beautiful": 0.85,
	"affordable": 0.3, "premium": 0.3, "secure": 0.4, "safe": 0.5,
	"sustainable": 0.3, "iconic": 0.5, "respected": 0.5, "positive": 0.23,
	"happy": 0.8, "easy": 0.43, "fast": 0.2, "modern": 0.2,
	"bad": -0.7, "poor": -0.4, "worst": -1.0, "worse": -0.4, "terrible": -1.0,
	"awful": -1.0, "negative": -0.3, "controversial": -0.3, "scandal": -0.6,
	"fraud": -0.8, "fraudulent": -0.8, "scam": -0.8, "fake": -0.5,
	"illegal": -0.5, "lawsuit": -0.4, "dangerous": -0.6, "unsafe": -0.5,
	"unreliable": -0.6, "untrustworthy": -0.7, "outdated": -0.4, "failed": -0.5,
	"failure": -0.5, "decline": -0.3, "declining": -0.3, "expensive": -0.3,
	"slow": -0.3, "broken": -0.4, "criticized": -0.4, "criticised": -0.4,
	"problem": -0.2, "problems": -0.2, "hate": -0.8, "disappointing": -0.6,
}

var intensifiers = map[string]float64{
	"very": 1.3, "extremely": 1.5, "highly": 1.3, "really": 1.2, "most": 1.3,
	"widely": 1.1, "quite": 1.1,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "n't": true, "without": true,
}

// Polarity averages the lexicon polarity of tokens, in [-1, 1]. A preceding
// intensifier scales a word and a preceding negation flips it at half weight.
// Text with no sentiment words is 0.
func Polarity(tokens []string) float64 {
	var sum float64
	matched := 0

	for i, tok := range tokens {
		p, ok := lexicon[strings.ToLower(tok)]
		if !ok {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			prev := strings.ToLower(tokens[j])
			if f, ok := intensifiers[prev]; ok {
				p *= f
				continue
			}
			if negations[prev] {
				p *= -0.5
				break
			}
			break
		}
		sum += clamp(p, -1, 1)
		matched++
	}

	if matched == 0 {
		return 0
	}
	return clamp(sum/float64(matched), -1, 1)
}

// SentimentLabel renders a polarity as "Positive (0.35)", "Negative (-0.40)"
// or "Neutral (0.00)"
func SentimentLabel(polarity float64) string {
	switch {
	case polarity > 0.2:
		return fmt.Sprintf("Positive (%.2f)", polarity)
	case polarity < -0.2:
		return fmt.Sprintf("Negative (%.2f)", polarity)
	default:
		return fmt.Sprintf("Neutral (%.2f)", polarity)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
