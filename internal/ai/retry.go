package ai

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls the exponential backoff applied to provider calls.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Backoff      float64
	Jitter       float64
}

// DefaultRetryConfig retries twice with 1s/2s delays, ±20% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Backoff:      2.0,
		Jitter:       0.2,
	}
}

// WithRetry runs fn until it succeeds or the retry budget is exhausted. The
// last error is returned wrapped with the attempt count.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, label string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt)
			log.Printf("[AI] Retrying %s (attempt %d/%d) after %v: %v",
				label, attempt, cfg.MaxRetries, delay, lastErr)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", label, cfg.MaxRetries+1, lastErr)
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Backoff, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	// Spread retries out so concurrent extractions don't hammer the provider
	// in lockstep.
	delay *= 1 + cfg.Jitter*(2*rand.Float64()-1)
	return time.Duration(delay)
}
