package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/MerlinChiodo/multi-agent-orchestration/core/client"
	"github.com/MerlinChiodo/multi-agent-orchestration/providers/ai"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero values
// are replaced with defaults when NewRetryMiddleware is called.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failure. Default: 2.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff. Default: 10s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier. Default: 2.
	BackoffFactor float64

	// JitterFraction adds up to JitterFraction*backoff of random noise. Default: 0.1.
	JitterFraction float64

	// RetryableFunc decides whether an error is worth another attempt.
	RetryableFunc func(error) bool
}

// transientMarkers are substrings of provider errors that indicate a temporary
// condition: rate limiting, overloaded servers, or a local model server that is
// still loading.
var transientMarkers = []string{
	"429", "500", "502", "503", "529",
	"connection refused",
	"connection reset",
	"EOF",
}

// IsTransient is the default RetryableFunc. Context cancellation and deadline
// errors are never retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = IsTransient
	}
}

// computeBackoff returns min(InitialBackoff*BackoffFactor^attempt, MaxBackoff)
// plus jitter, for a 0-indexed attempt.
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	base = math.Min(base, float64(config.MaxBackoff))

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // jitter only
	return time.Duration(base + jitter)
}

// NewRetryMiddleware retries failed send requests with exponential backoff.
// Non-retryable errors are returned immediately. On exhaustion the error wraps
// both [ErrRetryExhausted] and the last provider error.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				var lastErr error

				for attempt := 0; attempt <= config.MaxRetries; attempt++ {
					if attempt > 0 {
						timer := time.NewTimer(computeBackoff(config, attempt-1))
						select {
						case <-ctx.Done():
							timer.Stop()
							return nil, ctx.Err()
						case <-timer.C:
						}
					}

					response, err := next(ctx, request)
					if err == nil {
						return response, nil
					}

					lastErr = err
					if !config.RetryableFunc(err) {
						return nil, err
					}
				}

				return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
			}
		},
	}
}
