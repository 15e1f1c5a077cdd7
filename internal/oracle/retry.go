package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RetryConfig shapes the backoff applied to transient provider failures.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig is tuned for interactive runs: two quick retries,
// never more than ten seconds of waiting.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// transientMarkers are substrings of wrapped transport errors that
// indicate the provider may answer on a second attempt.
var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"no such host",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// IsRetryableError reports whether a provider error is worth retrying.
// Contract violations never are: the model answered, just badly, and the
// controller's fallback handles that.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var ce *ContractError
	if errors.As(err, &ce) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsRetryableStatusCode reports whether an HTTP status is worth retrying.
func IsRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// WithRetry runs fn, backing off exponentially between attempts. It stops
// on success, on a non-retryable error, or once the attempts run out.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryableError(lastErr) {
			return lastErr
		}
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
