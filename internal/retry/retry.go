package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Default policy values: ten attempts, waiting 20s, 40s, 80s ... between them
const (
	DefaultAttempts = 10
	DefaultBase     = 10 * time.Second
	DefaultFactor   = 2.0
)

// Attempt describes a failed attempt that is about to be retried
type Attempt struct {
	// Number is the 1-based attempt that failed
	Number int
	// Delay is how long the policy waits before the next attempt
	Delay time.Duration
	Err   error
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy decides which failures are retried and how long to wait between
// attempts. The zero Policy makes a single attempt.
type Policy struct {
	// Attempts is the total number of calls made, including the first
	Attempts int
	// Base and Factor give the delay after failed attempt n as Base * Factor^n
	Base   time.Duration
	Factor float64
	// Retryable selects the failures worth another attempt. Nil retries nothing.
	Retryable func(error) bool
	// OnRetry is notified before each wait
	OnRetry func(Attempt)
	// Sleep defaults to a context aware timer
	Sleep SleepFunc
}

// NewPolicy returns the default policy retrying the failures retryable accepts
func NewPolicy(retryable func(error) bool, onRetry func(Attempt)) Policy {
	return Policy{
		Attempts:  DefaultAttempts,
		Base:      DefaultBase,
		Factor:    DefaultFactor,
		Retryable: retryable,
		OnRetry:   onRetry,
	}
}

// ExhaustedError is returned when every attempt failed with a retryable error
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Delay returns the wait that follows failed attempt n (1-based)
func (p Policy) Delay(n int) time.Duration {
	factor := p.Factor
	if factor <= 0 {
		factor = DefaultFactor
	}
	return time.Duration(float64(p.Base) * math.Pow(factor, float64(n)))
}

// Schedule lists every delay the policy can apply, in order
func (p Policy) Schedule() []time.Duration {
	if p.Attempts <= 1 {
		return nil
	}
	out := make([]time.Duration, p.Attempts-1)
	for i := range out {
		out[i] = p.Delay(i + 1)
	}
	return out
}

// Do runs op until it succeeds, fails with an error the policy does not
// retry, runs out of attempts, or ctx is done.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var zero T
	for n := 1; ; n++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		if n >= attempts {
			return zero, &ExhaustedError{Attempts: n, Err: err}
		}

		delay := p.Delay(n)
		if p.OnRetry != nil {
			p.OnRetry(Attempt{Number: n, Delay: delay, Err: err})
		}
		if serr := sleep(ctx, delay); serr != nil {
			return zero, err
		}
	}
}

// Exec is Do for operations without a result
func Exec(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
