package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy defines how many times an operation runs and how long to wait
// between runs. The wait before retry n (0-based) is InitialDelay * 2^n.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultPolicy is used by the generation pipeline for primary provider calls.
var DefaultPolicy = Policy{
	MaxAttempts:  2,
	InitialDelay: 2 * time.Second,
}

// Backoff returns the delay after the given 0-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	return time.Duration(float64(p.InitialDelay) * math.Pow(2, float64(attempt)))
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExhaustedError is returned when every attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Caller runs operations under a Policy.
type Caller struct {
	policy   Policy
	classify Classifier
	sleep    SleepFunc
}

// NewCaller builds a Caller. Nil classify or sleep fall back to Classify and Sleep.
func NewCaller(policy Policy, classify Classifier, sleep SleepFunc) *Caller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if classify == nil {
		classify = Classify
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Caller{policy: policy, classify: classify, sleep: sleep}
}

// Policy returns the caller's policy.
func (c *Caller) Policy() Policy {
	return c.policy
}

// Do runs op until it succeeds, fails permanently, or runs out of attempts.
// Permanent failures are returned unchanged. Exhaustion returns an
// *ExhaustedError wrapping the last failure.
func Do[T any](ctx context.Context, c *Caller, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if c.classify(err) != Transient {
			return zero, err
		}

		if attempt == c.policy.MaxAttempts-1 {
			break
		}

		if sleepErr := c.sleep(ctx, c.policy.Backoff(attempt)); sleepErr != nil {
			return zero, sleepErr
		}
	}

	return zero, &ExhaustedError{Attempts: c.policy.MaxAttempts, Err: lastErr}
}
