package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/geoscore/internal/util"
)

// maxResponseBytes caps provider replies read into memory
const maxResponseBytes = 4 << 20

func newHTTPClient(config Config) *http.Client {
	return &http.Client{
		Timeout: config.timeout(defaultTimeout),
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}
}

// APIError is a non-200 reply from a provider endpoint
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the provider asked the caller to back off or
// failed on its side
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// jsonErrorField returns a describer that digs the message out of a JSON
// error body along path, e.g. {"error": {"message": "..."}}
func jsonErrorField(path ...string) func([]byte) string {
	return func(body []byte) string {
		var node interface{}
		if json.Unmarshal(body, &node) != nil {
			return ""
		}
		for _, key := range path {
			obj, ok := node.(map[string]interface{})
			if !ok {
				return ""
			}
			node = obj[key]
		}
		msg, _ := node.(string)
		return msg
	}
}

// postJSON sends body as JSON and decodes a 200 reply into out. Any other
// status becomes an *APIError whose message comes from describeError, or
// the raw body when that finds nothing.
func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body, out interface{}, describeError func([]byte) string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := describeError(respBody)
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &APIError{StatusCode: httpResp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
