package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

type flakyProvider struct {
	errs  []error
	calls int
}

func (f *flakyProvider) Name() string                     { return "flaky" }
func (f *flakyProvider) IsAvailable(context.Context) bool { return true }

func (f *flakyProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func TestWithRetry(t *testing.T) {
	overloaded := &APIError{StatusCode: 529, Message: "Overloaded"}
	rateLimited := fmt.Errorf("openai: %w", &openai.APIError{HTTPStatusCode: 429})

	tests := []struct {
		name      string
		errs      []error
		wantErr   bool
		wantCalls int
	}{
		{"success", nil, false, 1},
		{"overloaded then ok", []error{overloaded}, false, 2},
		{"openai rate limit then ok", []error{rateLimited, rateLimited}, false, 3},
		{"bad request not retried", []error{&APIError{StatusCode: 400, Message: "bad"}}, true, 1},
		{"plain error not retried", []error{errors.New("boom")}, true, 1},
		{"gives up", []error{overloaded, overloaded, overloaded}, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flaky := &flakyProvider{errs: tt.errs}
			p := WithRetry(flaky, 3, time.Millisecond)

			resp, err := p.Complete(context.Background(), CompletionRequest{Prompt: "x"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if err == nil && resp.Content != "ok" {
				t.Errorf("Unexpected response %+v", resp)
			}
			if flaky.calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, flaky.calls)
			}
			if p.Name() != "flaky" {
				t.Errorf("Expected wrapped name, got %s", p.Name())
			}
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	flaky := &flakyProvider{errs: []error{&APIError{StatusCode: 503}}}
	p := WithRetry(flaky, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Complete(ctx, CompletionRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if flaky.calls != 1 {
		t.Errorf("Expected a single call, got %d", flaky.calls)
	}
}
