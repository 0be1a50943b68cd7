package catalog

import (
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// RetryConfig controls RetryTransport backoff.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns the backoff used when only MaxRetries is configured.
func DefaultRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// RetryTransport retries idempotent requests on connection errors and
// 502, 503 and 504 responses with capped exponential backoff.
type RetryTransport struct {
	next   http.RoundTripper
	config RetryConfig
	logger *slog.Logger
}

// NewRetryTransport wraps next. A nil next uses http.DefaultTransport.
func NewRetryTransport(next http.RoundTripper, config RetryConfig, logger *slog.Logger) *RetryTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RetryTransport{next: next, config: config, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		resp, err := t.next.RoundTrip(req)
		if attempt >= t.config.MaxRetries || !retryable(resp, err) {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
		}

		delay := t.backoff(attempt)
		t.logger.Warn("retrying catalog request",
			"attempt", attempt+1,
			"delay", delay,
			"url", req.URL.Path,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *RetryTransport) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(t.config.BaseDelay) * math.Pow(2, float64(attempt)))
	if t.config.MaxDelay > 0 && delay > t.config.MaxDelay {
		delay = t.config.MaxDelay
	}
	return delay
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
