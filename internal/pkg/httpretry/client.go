// Package httpretry wraps an HTTP client with bounded retries and jittered
// exponential backoff for flaky local or external endpoints.
package httpretry

import (
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// Doer executes one HTTP request. *http.Client and *Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client retries transient failures: network errors and 429/5xx responses.
// Client errors (4xx other than 429) and context cancellation return
// immediately.
type Client struct {
	inner     Doer
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

// New wraps inner with up to attempts total tries. A nil inner uses a
// default http.Client with a 10s timeout.
func New(inner Doer, attempts int) *Client {
	if inner == nil {
		inner = &http.Client{Timeout: 10 * time.Second}
	}
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		inner:     inner,
		attempts:  attempts,
		baseDelay: 200 * time.Millisecond,
		maxDelay:  5 * time.Second,
	}
}

// Do executes the request, retrying retryable failures. The last response
// is returned as-is so the caller can inspect status and body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
			delay := c.backoff(attempt)
			logger.Debug("retrying request", "url", req.URL.String(), "attempt", attempt, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		resp, err := c.inner.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if !retryable(resp.StatusCode) || attempt == c.attempts {
			return resp, nil
		}
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = &StatusError{Code: resp.StatusCode}
	}
	return nil, lastErr
}

// StatusError reports a retryable status that persisted through all tries.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "httpretry: exhausted retries on status " + http.StatusText(e.Code)
}

// backoff returns a full-jitter exponential delay for the given attempt.
func (c *Client) backoff(attempt int) time.Duration {
	exp := float64(c.baseDelay) * math.Pow(2, float64(attempt-2))
	if exp > float64(c.maxDelay) {
		exp = float64(c.maxDelay)
	}
	d := time.Duration(rand.Float64() * exp)
	if d < 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
