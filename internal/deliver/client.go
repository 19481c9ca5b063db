// Package deliver pushes finished conversion results to a configured
// webhook endpoint.
package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryableError marks a delivery failure worth retrying: a transport
// error or a 5xx/429 response.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Result is the payload posted for one completed conversion.
type Result struct {
	JobID       string          `json:"job_id"`
	DocID       string          `json:"doc_id"`
	Filename    string          `json:"filename"`
	Format      string          `json:"format"`
	ContentHash string          `json:"content_hash"`
	CompletedAt string          `json:"completed_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Client posts results to the webhook HTTP endpoint.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Push delivers one result. Server and rate-limit failures come back as
// RetryableError so the caller's backoff loop can distinguish them.
func (c *Client) Push(ctx context.Context, res Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("push result: %w", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RetryableError{Err: fmt.Errorf("push result: status %d: %s", resp.StatusCode, string(respBody))}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push result: status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases any resources (currently a no-op).
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
