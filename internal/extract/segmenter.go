package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/nlp"
	"golang.org/x/text/unicode/norm"
)

var (
	// citationPattern matches "[1]", "[ 2 ]", "[[3]]" and similar
	citationPattern = regexp.MustCompile(`\[[^\w\n]*(\d+)[^\w\n]*\]`)

	paragraphBreak = regexp.MustCompile(`\n[ \t\f\v]*\n\s*`)
)

// Segmenter splits raw text into paragraphs, sentences and tokens
type Segmenter struct {
	nlp nlp.Toolkit
}

// NewSegmenter creates a segmenter backed by the given toolkit
func NewSegmenter(toolkit nlp.Toolkit) *Segmenter {
	return &Segmenter{nlp: toolkit}
}

// Toolkit returns the NLP handle the segmenter was built with
func (s *Segmenter) Toolkit() nlp.Toolkit {
	return s.nlp
}

// Segment builds a Document from raw text. Text without blank lines is one
// paragraph; paragraphs that yield no sentences are dropped.
func (s *Segmenter) Segment(text string) model.Document {
	text = norm.NFC.String(strings.ToValidUTF8(text, "\uFFFD"))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var doc model.Document
	for _, para := range SplitParagraphs(text) {
		var paragraph model.Paragraph
		for _, raw := range s.nlp.Sentences(para) {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			paragraph = append(paragraph, model.Sentence{
				Tokens:    s.nlp.Tokens(raw),
				Text:      raw,
				Citations: ExtractCitations(raw),
			})
		}
		if len(paragraph) > 0 {
			doc = append(doc, paragraph)
		}
	}

	return doc
}

// SplitParagraphs splits text on blank lines, trimming and dropping empty parts
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// ExtractCitations returns the citation indices in a sentence, left to right,
// duplicates kept. Indices too large for an int come back as math.MaxInt so
// range checks still see them.
func ExtractCitations(sentence string) []int {
	matches := citationPattern.FindAllStringSubmatch(sentence, -1)
	if len(matches) == 0 {
		return nil
	}

	citations := make([]int, 0, len(matches))
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			idx = math.MaxInt
		}
		citations = append(citations, idx)
	}
	return citations
}
