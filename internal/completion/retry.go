package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3

	// DefaultBackoff is the fixed wait between attempts
	DefaultBackoff = 20 * time.Second
)

// ErrEmptyResponse is returned for an attempt whose generated text is blank.
// A blank result would leave the row pending, so it counts as a failure
var ErrEmptyResponse = errors.New("empty response")

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier wraps a Backend with a fixed-interval, bounded retry policy
type Retrier struct {
	Backend    Backend
	MaxRetries int           // Retries after the first attempt; negative means none
	Backoff    time.Duration // Fixed wait between attempts
	Sleep      SleepFunc     // Defaults to Sleep
	Logger     *zap.Logger   // Defaults to a no-op logger
}

// NewRetrier creates a Retrier with the default policy of 3 retries and a
// 20 second backoff
func NewRetrier(backend Backend, logger *zap.Logger) *Retrier {
	return &Retrier{
		Backend:    backend,
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
		Sleep:      Sleep,
		Logger:     logger,
	}
}

// Complete tries the backend up to 1+MaxRetries times, waiting Backoff
// between attempts. Exhaustion and cancellation both return *CompletionError
func (r *Retrier) Complete(ctx context.Context, req Request) (Result, error) {
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxAttempts := 1 + max(r.MaxRetries, 0)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, &CompletionError{Attempts: attempt - 1, Err: err}
		}

		text, err := r.Backend.Complete(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			return Result{Text: text, Attempts: attempt}, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		logger.Warn("Completion attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("backoff", r.Backoff),
			zap.Error(err))

		if err := sleep(ctx, r.Backoff); err != nil {
			return Result{}, &CompletionError{Attempts: attempt, Err: err}
		}
	}

	return Result{}, &CompletionError{Attempts: maxAttempts, Err: lastErr}
}
