package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// retrying re-sends a completion when the provider reports overload or a
// server-side failure
type retrying struct {
	Provider
	attempts int
	backoff  time.Duration
}

// WithRetry wraps p so transient API errors are retried up to attempts
// times in total, doubling the wait from backoff
func WithRetry(p Provider, attempts int, backoff time.Duration) Provider {
	if p == nil || attempts <= 1 {
		return p
	}
	return &retrying{Provider: p, attempts: attempts, backoff: backoff}
}

func (r *retrying) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	wait := r.backoff
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, err := r.Provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == r.attempts || !isTransient(err) {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, lastErr
}

// isTransient recognises retryable failures from both the HTTP providers
// and the go-openai client
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return oaiErr.HTTPStatusCode == http.StatusTooManyRequests || oaiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return false
}
