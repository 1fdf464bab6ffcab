package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// maxRetryAfter caps a server-requested wait.
const maxRetryAfter = 30 * time.Second

// APIError is a non-2xx answer from the chart API. Code and Message come from
// the chart error body when Yahoo sends one.
type APIError struct {
	StatusCode int
	Code       string        // e.g. "Not Found"
	Message    string        // Chart error description, else the status text
	RetryAfter time.Duration // From the Retry-After header; 0 when absent
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("history api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("history api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether a later attempt may succeed: throttling and
// server-side failures.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// fetch performs a single GET and returns the body of a 2xx answer.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, newAPIError(resp, body)
	}
	return body, nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       body,
	}

	var chart chartResponse
	if json.Unmarshal(body, &chart) == nil && chart.Chart.Error != nil {
		e.Code = chart.Chart.Error.Code
		if d := chart.Chart.Error.Description; d != "" {
			e.Message = d
		}
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = min(time.Duration(secs)*time.Second, maxRetryAfter)
	}
	return e
}

// fetchWithRetry retries retryable failures up to maxRetries times. It waits
// for Retry-After when the server sends one, else for a jittered exponential
// backoff.
func (c *Client) fetchWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	backoff := c.retryBackoff
	for attempt := 0; ; attempt++ {
		body, err := c.fetch(ctx, path, query)
		if err == nil {
			return body, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
		if attempt == c.maxRetries {
			return nil, fmt.Errorf("max retries exceeded: %w", err)
		}

		wait := apiErr.RetryAfter
		if wait == 0 {
			wait = backoff/2 + time.Duration(rand.Int63n(int64(backoff)+1))
			backoff *= 2
		}
		c.logger.Debug("retrying chart request",
			"path", path,
			"attempt", attempt+1,
			"status", apiErr.StatusCode,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// getJSON fetches path and decodes the body into result.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	body, err := c.fetchWithRetry(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
