package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Veraticus/finsight/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError marks whether a failure is worth another attempt.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err}
}

// Transient marks err as worth retrying.
func Transient(err error) error {
	return &RetryableError{Err: err, Retryable: true}
}

// Backoff computes exponential delays between attempts.
type Backoff struct {
	rand       func() float64
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// NewBackoff fills unset options with defaults.
func NewBackoff(opts service.RetryOptions) Backoff {
	b := Backoff{
		Initial:    opts.InitialDelay,
		Max:        opts.MaxDelay,
		Multiplier: opts.Multiplier,
		Jitter:     math.Min(math.Max(opts.Jitter, 0), 1),
		rand:       rand.Float64,
	}
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 30 * time.Second
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
	return b
}

// Delay returns the wait before retry n, counting from 1.
func (b Backoff) Delay(n int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(max(n-1, 0)))
	if b.Jitter > 0 && b.rand != nil {
		d *= 1 + b.Jitter*(2*b.rand()-1)
	}
	return time.Duration(math.Min(d, float64(b.Max)))
}

// WithRetry runs operation until it succeeds, a failure is not retryable,
// attempts run out or ctx ends. A single attempt returns the operation's
// error unchanged.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	retryIf := opts.RetryIf
	if retryIf == nil {
		retryIf = notPermanent
	}
	backoff := NewBackoff(opts)

	for attempt := 1; ; attempt++ {
		err := operation()
		switch {
		case err == nil:
			return nil
		case attempts == 1:
			return err
		case !retryIf(err):
			return err
		case attempt == attempts:
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
		}

		delay := backoff.Delay(attempt)
		if errors.Is(err, ErrRateLimit) {
			delay = backoff.Max
		}
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func notPermanent(err error) bool {
	var re *RetryableError
	return !errors.As(err, &re) || re.Retryable
}
