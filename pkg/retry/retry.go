/*
Package retry runs fallible operations again when they fail with a transient error,
waiting an exponentially growing, capped delay between attempts.

An operation is attempted at most MaxRetries+1 times. Once the retries are used up,
or the error is classified as permanent, the error returned by the last attempt is
handed back to the caller unchanged so it can still be matched with errors.Is,
errors.As or the apimachinery apierrors helpers.
*/
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = 1 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelay          = 10 * time.Second
)

// ShouldRetryFunc decides whether the failed attempt number attempt (1 based)
// should be retried.
type ShouldRetryFunc func(err error, attempt int) bool

// OnRetryFunc observes a retry after its delay has elapsed and before the next
// attempt starts.
type OnRetryFunc func(err error, attempt int, delay time.Duration)

// Options configures a retried call. The zero value retries nothing.
type Options struct {
	// MaxRetries is the number of attempts made after the first one.
	MaxRetries int
	// RetryDelay is the wait before the first retry.
	RetryDelay time.Duration
	// BackoffMultiplier is applied to the delay after every retry. Values <= 0 mean 1.
	BackoffMultiplier float64
	// MaxDelay caps the delay. Zero or less means no cap.
	MaxDelay time.Duration
	// ShouldRetry classifies errors; DefaultShouldRetry when nil.
	ShouldRetry ShouldRetryFunc
	// OnRetry is called for every retry; optional.
	OnRetry OnRetryFunc
}

// DefaultOptions returns options retrying transient failures 3 times waiting 1s, 2s
// and 4s.
func DefaultOptions() Options {
	return Options{
		MaxRetries:        DefaultMaxRetries,
		RetryDelay:        DefaultRetryDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelay:          DefaultMaxDelay,
		ShouldRetry:       DefaultShouldRetry,
	}
}

// WithOnRetry returns a copy of o calling hook after any hook already set.
func (o Options) WithOnRetry(hook OnRetryFunc) Options {
	o.OnRetry = ChainOnRetry(o.OnRetry, hook)
	return o
}

func (o Options) normalize() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = 1
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = time.Duration(math.MaxInt64)
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = DefaultShouldRetry
	}
	return o
}

// Schedule returns the delays waited before each of the MaxRetries retries.
func (o Options) Schedule() []time.Duration {
	o = o.normalize()
	b := o.backOff()
	delays := make([]time.Duration, o.MaxRetries)
	for i := range delays {
		delays[i] = min(b.NextBackOff(), o.MaxDelay)
	}
	return delays
}

// backOff builds a jitter free exponential schedule. o must be normalized.
func (o Options) backOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     o.RetryDelay,
		RandomizationFactor: 0,
		Multiplier:          o.BackoffMultiplier,
		MaxInterval:         o.MaxDelay,
	}
	b.Reset()
	return b
}

// sleep waits for d or until ctx is done.
var sleep = func(ctx context.Context, d time.Duration) error {
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

// Do runs op until it succeeds, fails with an error ShouldRetry rejects, or
// MaxRetries retries have been made. The last error is returned unchanged.
//
// If ctx is done while waiting between attempts, Do stops and returns
// errors.Join(ctx.Err(), lastErr).
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts = opts.normalize()
	b := opts.backOff()
	for attempt := 1; ; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		var zero T
		if attempt > opts.MaxRetries || !opts.ShouldRetry(err, attempt) {
			return zero, err
		}
		delay := min(b.NextBackOff(), opts.MaxDelay)
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return zero, errors.Join(waitErr, err)
		}
		if opts.OnRetry != nil {
			opts.OnRetry(err, attempt, delay)
		}
	}
}

// DoErr is Do for operations without a result.
func DoErr(ctx context.Context, op func(ctx context.Context) error, opts Options) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts)
	return err
}

// Wrap returns a function with the same signature as fn that retries it with opts.
func Wrap[A, R any](fn func(context.Context, A) (R, error), opts Options) func(context.Context, A) (R, error) {
	return func(ctx context.Context, arg A) (R, error) {
		return Do(ctx, func(ctx context.Context) (R, error) {
			return fn(ctx, arg)
		}, opts)
	}
}

// WrapErr returns a retrying version of an error-only function.
func WrapErr(fn func(context.Context) error, opts Options) func(context.Context) error {
	return func(ctx context.Context) error {
		return DoErr(ctx, fn, opts)
	}
}
