// Package retrier repeats a failing operation with capped exponential backoff.
package retrier

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	defaultBase    = time.Second
	defaultLimit   = 30 * time.Second
	defaultRetries = 5
	defaultJitter  = 0.1
)

// Retrier runs an operation up to 1+retries times.
// The wait before retry n is base*2^(n-1), never above limit, spread by ±jitter.
type Retrier struct {
	base      time.Duration
	limit     time.Duration
	retries   int
	jitter    float64
	retryable func(error) bool
	onRetry   func(attempt int, err error, wait time.Duration)
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithBackoff sets the first wait and the longest wait between attempts.
func WithBackoff(base, limit time.Duration) Option {
	return func(r *Retrier) {
		r.base, r.limit = base, limit
	}
}

// WithMaxRetries sets how many times a failed attempt is repeated.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.retries = n
	}
}

// WithJitter spreads each wait by up to the given fraction, 0 disables.
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		r.jitter = j
	}
}

// WithRetryable limits retries to errors accepted by fn.
// Other errors are returned immediately.
func WithRetryable(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryable = fn
	}
}

// WithOnRetry registers a hook called before each wait with the number of the failed attempt.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

func New(opts ...Option) *Retrier {
	r := &Retrier{
		base:    defaultBase,
		limit:   defaultLimit,
		retries: defaultRetries,
		jitter:  defaultJitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do calls fn until it succeeds, fails with a non-retryable error or runs out of retries.
// It returns the last error of fn, or ctx.Err() if ctx ends while waiting.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt > r.retries {
			return err
		}
		if r.retryable != nil && !r.retryable(err) {
			return err
		}

		wait := r.delay(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// delay is the wait after the given failed attempt.
func (r *Retrier) delay(attempt int) time.Duration {
	d := r.base
	for i := 1; i < attempt && d < r.limit; i++ {
		d *= 2
	}
	if d > r.limit {
		d = r.limit
	}
	if r.jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * r.jitter * float64(d))
	}
	return max(d, 0)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
