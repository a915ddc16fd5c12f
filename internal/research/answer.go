package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/geoscore/internal/extract"
	"github.com/ppiankov/geoscore/internal/llm"
)

const answerPrompt = `Write an accurate and concise answer for the given user question, using _only_ the provided summarized web search results. The answer should be correct, high-quality, and written by an expert using an unbiased and journalistic tone. The answer must cite its sources after each sentence that uses them, with the source number in square brackets, like [1] or [1][2]. Cite at least one source per sentence and only cite sources that support the sentence. Do not mention sources that are not listed.

Question: {query}

Search Results:
{sources}
`

// ErrEmptyQuery is returned when GenerateAnswer gets a blank query
var ErrEmptyQuery = errors.New("query is required")

// Answer is an LLM answer written over numbered sources
type Answer struct {
	Query     string `json:"query"`
	Text      string `json:"text"`
	Sources   int    `json:"sources"`
	Citations []int  `json:"citations"` // distinct indices cited, in order of first use
	Model     string `json:"model,omitempty"`
}

// BuildAnswerPrompt numbers the sources from 1 in "### Source n:" blocks
func BuildAnswerPrompt(query string, sources []string) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("### Source %d:\n%s", i+1, strings.TrimSpace(s))
	}
	r := strings.NewReplacer("{query}", strings.TrimSpace(query), "{sources}", strings.Join(blocks, "\n\n"))
	return r.Replace(answerPrompt)
}

// GenerateAnswer asks provider to answer query from sources, citing them as
// [n]. The reply is what the scorer measures, with n = len(sources).
func GenerateAnswer(ctx context.Context, provider llm.Provider, query string, sources []string) (*Answer, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	resp, err := provider.Complete(ctx, llm.CompletionRequest{Prompt: BuildAnswerPrompt(query, sources)})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	text := llm.StripCodeFence(resp.Content)
	if text == "" {
		return nil, fmt.Errorf("generate answer: empty reply")
	}

	return &Answer{
		Query:     strings.TrimSpace(query),
		Text:      text,
		Sources:   len(sources),
		Citations: firstUse(extract.ExtractCitations(text)),
		Model:     resp.Model,
	}, nil
}

func firstUse(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	out := []int{}
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
