package providers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryConfig mirrors the rate_limiting block of a functional stage's LLM
// configuration: a preventive delay before every call, plus retry-on-429
// behaviour with optional exponential backoff.
type RetryConfig struct {
	Enabled              bool
	MaxRetries           int
	RetryDelayBase       time.Duration
	ExponentialBackoff   bool
	DelayBetweenRequests time.Duration
}

// DefaultRetryConfig is the fallback policy when a stage configures no
// rate_limiting block: 3 retries, a 2-second backoff base, exponential
// growth, and a half-second preventive delay before every call.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:              true,
		MaxRetries:           3,
		RetryDelayBase:       2 * time.Second,
		ExponentialBackoff:   true,
		DelayBetweenRequests: 500 * time.Millisecond,
	}
}

// WithRetry runs fn, retrying on rate-limit errors (HTTP 429 or an error
// string containing "rate", case-insensitive) up to cfg.MaxRetries times.
// Non-rate-limit errors are returned immediately with no retry. A preventive
// delay runs before every attempt, including the first, when cfg.Enabled.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxRetries == 0 && cfg.RetryDelayBase == 0 && cfg.DelayBetweenRequests == 0 && !cfg.ExponentialBackoff {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if cfg.Enabled && cfg.DelayBetweenRequests > 0 {
			if err := sleepCtx(ctx, cfg.DelayBetweenRequests); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRateLimitErr(err) {
			return err
		}
		if attempt == cfg.MaxRetries {
			return fmt.Errorf("providers: rate limit persisted after %d attempts: %w", cfg.MaxRetries+1, err)
		}

		delay := cfg.RetryDelayBase
		if cfg.ExponentialBackoff {
			delay = cfg.RetryDelayBase * time.Duration(1<<uint(attempt))
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func isRateLimitErr(err error) bool {
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(strings.ToLower(s), "rate")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
