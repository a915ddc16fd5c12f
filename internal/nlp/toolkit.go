// Package nlp provides the sentence, token, entity and stop-word capabilities
// the segmenter and scorers depend on.
package nlp

// Toolkit is the language capability set required by scoring.
// Implementations must be safe for concurrent use once constructed.
type Toolkit interface {
	// Sentences splits one paragraph into trimmed, non-empty sentences
	Sentences(paragraph string) []string

	// Tokens splits one sentence into word and punctuation tokens, whitespace excluded
	Tokens(sentence string) []string

	// Entities recognizes named entities within a sentence's tokens
	Entities(tokens []string) []Entity

	// IsStopWord reports whether a lower-cased token is a stop word
	IsStopWord(token string) bool
}

// Entity is a recognized named-entity span
type Entity struct {
	Text  string `json:"text"`
	Label Label  `json:"label"`
	Start int    `json:"start"` // Index of the first token
	End   int    `json:"end"`   // Index one past the last token
}

// Label is a named-entity category
type Label string

const (
	LabelOrg       Label = "ORG"
	LabelGPE       Label = "GPE"
	LabelPerson    Label = "PERSON"
	LabelProduct   Label = "PRODUCT"
	LabelEvent     Label = "EVENT"
	LabelWorkOfArt Label = "WORK_OF_ART"
)

// SourceLabels are the entity categories that count toward sourceability
var SourceLabels = map[Label]bool{
	LabelOrg:       true,
	LabelGPE:       true,
	LabelPerson:    true,
	LabelProduct:   true,
	LabelEvent:     true,
	LabelWorkOfArt: true,
}
