package archive

import (
	"context"
	"time"
)

// DefaultAttempts and DefaultBaseDelay give three tries spaced 0.5s, 1.0s.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 500 * time.Millisecond
)

// RetryPolicy bounds the retries of one archive move.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// BaseDelay is multiplied by the attempt number to get the wait after
	// that attempt fails.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns the policy used unless configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

// Backoff returns the wait after failed attempt n (1-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return p.BaseDelay * time.Duration(n)
}

// Start returns a fresh Retrier for one operation.
func (p RetryPolicy) Start() *Retrier {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	return &Retrier{policy: p, attempt: 1}
}

// Retrier is the state of one bounded retry loop.
//
//	attempt 1 ─fail→ wait Backoff(1) → attempt 2 ─fail→ wait Backoff(2) → ... → exhausted
//
// Retriers are per-operation and never shared, so one file's backoff does
// not hold up another.
type Retrier struct {
	policy  RetryPolicy
	attempt int
}

// Attempt returns the current 1-based attempt number.
func (r *Retrier) Attempt() int {
	return r.attempt
}

// Next records a failure of the current attempt. It returns the delay to
// wait before the next attempt, or false when the budget is spent.
func (r *Retrier) Next() (time.Duration, bool) {
	if r.attempt >= r.policy.Attempts {
		return 0, false
	}
	d := r.policy.Backoff(r.attempt)
	r.attempt++
	return d, true
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// TimerSleep is the production Sleeper.
func TimerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
