// Package retry runs an operation again with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/law-makers/reviewcrawl/internal/reqctx"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts    int           // Total attempts, including the first
	InitialBackoff time.Duration // Wait before the second attempt
	MaxBackoff     time.Duration // Upper bound for any single wait
	Multiplier     float64       // Growth factor between waits

	// OnRetry is called before each wait with the attempt that just failed
	OnRetry func(attempt int, err error)
}

// DefaultConfig is one retry after a second
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2,
	}
}

// Retryable is implemented by errors that know whether they are worth retrying
type Retryable interface {
	Retryable() bool
}

// WithRetry calls fn until it succeeds, returns a non-retryable error, ctx is
// done, or MaxAttempts is reached. With more than one attempt the final error
// is wrapped with the attempt count.
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := max(cfg.MaxAttempts, 1)
	logger := reqctx.Logger(ctx)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				logger.Debug().Int("attempts", attempt).Msg("Retry succeeded")
			}
			return nil
		}
		if ctx.Err() != nil || !shouldRetry(err) {
			logger.Debug().Err(err).Msg("Error is not retryable")
			return err
		}
		if attempt == attempts {
			break
		}

		wait := calculateBackoff(attempt-1, cfg)
		logger.Debug().
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Err(err).
			Msg("Retrying after backoff")
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if attempts == 1 {
		return err
	}
	logger.Warn().Int("attempts", attempts).Err(err).Msg("Max retry attempts exceeded")
	return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// calculateBackoff returns the wait after the given zero-based failed attempt
func calculateBackoff(attempt int, cfg Config) time.Duration {
	factor := max(cfg.Multiplier, 1)
	wait := float64(cfg.InitialBackoff)
	for i := 0; i < attempt; i++ {
		wait *= factor
		if cfg.MaxBackoff > 0 && wait >= float64(cfg.MaxBackoff) {
			return cfg.MaxBackoff
		}
	}
	if cfg.MaxBackoff > 0 && wait > float64(cfg.MaxBackoff) {
		return cfg.MaxBackoff
	}
	return time.Duration(wait)
}

// shouldRetry reports whether err is worth another attempt. Errors that
// implement Retryable decide for themselves; cancellation never retries and
// anything else does.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return !errors.Is(err, context.Canceled)
}
