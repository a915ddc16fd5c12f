package model

// Sentence is one segmented sentence with its tokens and citation markers
type Sentence struct {
	Tokens    []string `json:"tokens"`              // Word and punctuation tokens in order
	Text      string   `json:"text"`                // Trimmed raw sentence text
	Citations []int    `json:"citations,omitempty"` // Citation indices left to right, duplicates kept
}

// Paragraph is an ordered run of sentences delimited by blank lines
type Paragraph []Sentence

// Document is the segmented form of an input text
type Document []Paragraph

// Sentences flattens the document into original sentence order.
// Position decay is always computed over this order.
func (d Document) Sentences() []Sentence {
	var out []Sentence
	for _, p := range d {
		out = append(out, p...)
	}
	return out
}

// SentenceCount returns the number of sentences across all paragraphs
func (d Document) SentenceCount() int {
	n := 0
	for _, p := range d {
		n += len(p)
	}
	return n
}

// CitationIndices returns every distinct citation index in first-seen order
func (d Document) CitationIndices() []int {
	seen := make(map[int]bool)
	var out []int
	for _, p := range d {
		for _, s := range p {
			for _, c := range s.Citations {
				if !seen[c] {
					seen[c] = true
					out = append(out, c)
				}
			}
		}
	}
	return out
}
