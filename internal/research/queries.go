// Package research generates the questions users ask chat assistants about
// a topic and classifies their intent.
package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/geoscore/internal/llm"
)

// QueryCount is how many related queries are returned
const QueryCount = 5

const relatedQueriesPrompt = `
You are an expert in understanding how large language models (LLMs) process information.
Your task is to return a list of questions that users commonly ask about the following topic:

Topic: {topic}

Return exactly 5 distinct questions that:
- Are likely to be asked in AI chatbots like ChatGPT or Gemini
- Can be answered using factual data
- Represent common user intents (informational, comparative, instructional)

Format as JSON array:
["question 1", "question 2", ...]
`

// ErrNoProvider is returned when no LLM is configured
var ErrNoProvider = errors.New("no LLM provider configured")

// FallbackQueries returns the template questions used when the LLM is
// unavailable or its reply cannot be parsed
func FallbackQueries(topic string) []string {
	topic = strings.TrimSpace(topic)
	return []string{
		fmt.Sprintf("What is %s?", topic),
		fmt.Sprintf("How does %s work?", topic),
		fmt.Sprintf("Why should I use %s?", topic),
		fmt.Sprintf("Best practices for %s", topic),
		fmt.Sprintf("%s vs alternatives", topic),
	}
}

// RelatedQueries asks provider for the questions users commonly put to chat
// assistants about topic. On any failure it returns FallbackQueries together
// with the error, so callers can log it and carry on.
func RelatedQueries(ctx context.Context, provider llm.Provider, topic string) ([]string, error) {
	if provider == nil {
		return FallbackQueries(topic), ErrNoProvider
	}

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Prompt: strings.Replace(relatedQueriesPrompt, "{topic}", topic, 1),
	})
	if err != nil {
		return FallbackQueries(topic), fmt.Errorf("related queries: %w", err)
	}

	queries, err := ParseQueries(resp.Content)
	if err != nil {
		return FallbackQueries(topic), err
	}
	return queries, nil
}

// ParseQueries decodes a JSON array of strings, optionally wrapped in a
// Markdown code fence. Blank entries are dropped and at most QueryCount
// questions are kept.
func ParseQueries(reply string) ([]string, error) {
	body := llm.StripCodeFence(reply)

	// Tolerate prose around the array
	if start, end := strings.Index(body, "["), strings.LastIndex(body, "]"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var raw []string
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("parse related queries: %w", err)
	}

	queries := make([]string, 0, QueryCount)
	for _, q := range raw {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
		if len(queries) == QueryCount {
			break
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("parse related queries: empty list")
	}
	return queries, nil
}
