package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// ErrRateLimited marks an error as a rate-limit response.
var ErrRateLimited = errors.New("rate limited")

type RetryConfig struct {
	MaxAttempts    int
	Timeout        time.Duration // Per attempt
	Delay          time.Duration // Base delay, doubled after each failure
	RateLimitDelay time.Duration // Base delay after a rate-limit response
	MaxDelay       time.Duration
}

// DefaultConfig is three attempts with a 30s per-call timeout.
func DefaultConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		Timeout:        30 * time.Second,
		Delay:          time.Second,
		RateLimitDelay: 10 * time.Second,
		MaxDelay:       60 * time.Second,
	}
}

// Stats reports what happened during WithRetry.
type Stats struct {
	Attempts    int
	RateLimited int
}

// WithRetry calls fn until it succeeds, the attempts are exhausted or ctx is
// done. Each attempt runs under its own timeout. Rate-limit errors back off
// longer than other failures.
func WithRetry(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) (Stats, error) {
	var stats Stats
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		stats.Attempts = attempt
		err := callWithTimeout(ctx, config.Timeout, fn)
		if err == nil {
			return stats, nil
		}
		lastErr = err

		limited := IsRateLimited(err)
		if limited {
			stats.RateLimited++
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if attempt == config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-time.After(backoff(config, attempt, limited)):
		}
	}

	return stats, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func callWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func backoff(config RetryConfig, attempt int, limited bool) time.Duration {
	base := config.Delay
	if limited && config.RateLimitDelay > base {
		base = config.RateLimitDelay
	}
	d := base << (attempt - 1)
	if config.MaxDelay > 0 && d > config.MaxDelay {
		d = config.MaxDelay
	}
	return d
}

// IsRateLimited recognizes rate-limit and quota errors from the Google API
// clients as well as errors wrapping ErrRateLimited.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resource_exhausted", "resourceexhausted", "rate limit", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
