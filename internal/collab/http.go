package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/ratelimit"
)

// client is the shared HTTP plumbing for collaborator calls: one base URL,
// an explicit per-call timeout, and a rate limiter respecting the
// collaborator's request budget. The limiter blocks before each request.
type client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	limiter ratelimit.Limiter
	apiKey  string
}

func newClient(cfg *Config) *client {
	return &client{
		http:    &http.Client{},
		baseURL: cfg.BaseURL,
		timeout: cfg.TimeoutDuration(),
		limiter: ratelimit.New(cfg.RequestsPerSecond),
		apiKey:  cfg.APIKey,
	}
}

// post sends a JSON request and returns the raw response body. Rate-limit
// and server-side failures come back wrapped in ErrTransient; client-side
// rejections in ErrPermanent.
func (c *client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// Take blocks without watching ctx, so honor a cancellation that
	// arrived while waiting before issuing the request.
	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transientf("%s: %v", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientf("%s: read response: %v", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return data, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, transientf("%s: status %d", path, resp.StatusCode)
	default:
		return nil, permanentf("%s: status %d: %s", path, resp.StatusCode, truncate(data, 256))
	}
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
