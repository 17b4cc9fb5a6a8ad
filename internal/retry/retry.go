// Package retry drives model invocations through an explicit state machine
// (Idle, Requesting, Backoff, Succeeded, Failed) with injectable timing so
// that retry behavior can be exercised without real timers.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/JaimeStill/vantage/internal/model"
)

// State is a position in the retry state machine.
type State int

const (
	Idle State = iota
	Requesting
	Backoff
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Backoff:
		return "backoff"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition records a single state change. Delay is set when entering Backoff.
type Transition struct {
	From    State
	To      State
	Attempt int
	Delay   time.Duration
	Err     error
}

// Observer receives every transition made by a Controller.
type Observer func(Transition)

// Clock abstracts waiting so tests can substitute an immediate clock.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Policy bounds how many times a request is attempted.
// ValidationRetries limits retries caused by malformed model output and is
// further capped by MaxAttempts.
type Policy struct {
	MaxAttempts       int
	ValidationRetries int
}

// Outcome is the terminal result of Controller.Do.
// Err is a *BatchFailure when State is Failed.
type Outcome struct {
	State    State
	Attempts int
	Err      error
}

// Controller wraps a request function with backoff and retry.
type Controller struct {
	policy   Policy
	clock    Clock
	backoff  Strategy
	observer Observer
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for backoff waits.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithBackoff replaces the backoff strategy.
func WithBackoff(s Strategy) Option {
	return func(ctl *Controller) { ctl.backoff = s }
}

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observer = o }
}

// New creates a Controller. MaxAttempts below one is treated as one.
func New(policy Policy, opts ...Option) *Controller {
	policy.MaxAttempts = max(policy.MaxAttempts, 1)
	policy.ValidationRetries = max(policy.ValidationRetries, 0)

	c := &Controller{
		policy:  policy,
		clock:   realClock{},
		backoff: DefaultExponential(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do invokes fn until it succeeds, fails with an error that is not
// retryable, or exhausts the attempt budget.
//
// Rate limit and transport errors are retried. Validation errors are
// retried at most Policy.ValidationRetries times. Any other error, and
// cancellation of ctx, fails immediately.
func (c *Controller) Do(ctx context.Context, fn func(ctx context.Context) error) Outcome {
	var (
		state       = Idle
		attempt     int
		invalid     int
		lastErr     error
		exhausted   bool
		backoffWait time.Duration
	)

	move := func(to State) {
		if c.observer != nil {
			c.observer(Transition{From: state, To: to, Attempt: attempt, Delay: backoffWait, Err: lastErr})
		}
		state = to
	}

	for {
		switch state {
		case Idle:
			move(Requesting)

		case Requesting:
			if err := ctx.Err(); err != nil {
				lastErr = err
				move(Failed)
				continue
			}

			attempt++
			lastErr = fn(ctx)
			if lastErr == nil {
				move(Succeeded)
				continue
			}

			retry := c.retryable(ctx, lastErr, &invalid)
			if !retry || attempt >= c.policy.MaxAttempts {
				exhausted = retry
				move(Failed)
				continue
			}

			backoffWait = c.backoff.Delay(attempt, lastErr)
			move(Backoff)

		case Backoff:
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				backoffWait = 0
				move(Failed)
			case <-c.clock.After(backoffWait):
				backoffWait = 0
				move(Requesting)
			}

		case Succeeded:
			return Outcome{State: Succeeded, Attempts: attempt}

		case Failed:
			return Outcome{
				State:    Failed,
				Attempts: attempt,
				Err: &BatchFailure{
					Attempts:  attempt,
					Exhausted: exhausted,
					Err:       lastErr,
				},
			}
		}
	}
}

func (c *Controller) retryable(ctx context.Context, err error, invalid *int) bool {
	if ctx.Err() != nil {
		return false
	}

	var (
		rl *model.RateLimitError
		te *model.TransportError
		ve *model.ValidationError
	)

	switch {
	case errors.As(err, &rl), errors.As(err, &te):
		return true
	case errors.As(err, &ve):
		*invalid++
		return *invalid <= c.policy.ValidationRetries
	default:
		return false
	}
}
