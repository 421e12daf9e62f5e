// Package llmhttp holds the JSON-over-HTTP plumbing and prompts shared by the
// documentation providers.
package llmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrUnavailable     = errors.New("ai provider unavailable")
	ErrTimeout         = errors.New("ai inference timeout")
	ErrInvalidResponse = errors.New("ai provider returned invalid response")
	ErrRejected        = errors.New("ai provider rejected the request")
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// Client posts JSON requests and decodes JSON responses.
type Client struct {
	http *http.Client
}

// New returns a Client. A nil hc uses a client without a timeout; callers
// bound calls with the request context.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc}
}

// PostJSON sends in as the request body and decodes the response into out.
// Transport failures, 429 and 5xx map to ErrUnavailable, other 4xx to
// ErrRejected and a context deadline to ErrTimeout.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := ErrRejected
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = ErrUnavailable
		}
		return fmt.Errorf("%w: status %d: %s", kind, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
