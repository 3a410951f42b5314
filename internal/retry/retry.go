// Package retry re-runs flaky page loads with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts    int           // first attempt included
	InitialBackoff time.Duration // wait after the first failure
	MaxBackoff     time.Duration // cap, 0 = none
	Multiplier     float64
}

// DefaultConfig returns the retry policy used for page loads
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// Backoff is the wait after failed attempt n (0-based):
// InitialBackoff * Multiplier^n, capped at MaxBackoff
func (c Config) Backoff(n int) time.Duration {
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.InitialBackoff) * math.Pow(mult, float64(n))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	return time.Duration(d)
}

// Retryable is implemented by errors that know whether another attempt may succeed
type Retryable interface {
	Retryable() bool
}

// WithRetry calls fn until it succeeds, returns an error that must not be
// retried, or MaxAttempts is used up. fn receives the 1-based attempt number.
// A single-attempt policy returns fn's error untouched.
func WithRetry(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for n := 1; n <= attempts; n++ {
		if err = fn(n); err == nil {
			if n > 1 {
				log.Debug().Int("attempts", n).Msg("Retry succeeded")
			}
			return nil
		}
		if !ShouldRetry(err) {
			return err
		}
		if n == attempts {
			break
		}

		wait := cfg.Backoff(n - 1)
		log.Debug().
			Int("attempt", n).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Err(err).
			Msg("Retrying after backoff")

		if werr := sleep(ctx, wait); werr != nil {
			return werr
		}
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShouldRetry reports whether err is worth another attempt. Cancellation
// never is; errors implementing Retryable decide for themselves; timeouts
// are; anything else is retried.
func ShouldRetry(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}
	return true
}
