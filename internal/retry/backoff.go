package retry

import (
	"errors"
	"time"

	"github.com/JaimeStill/vantage/internal/model"
)

// Strategy computes the wait before the next attempt.
// attempt is the number of attempts already made.
type Strategy interface {
	Delay(attempt int, err error) time.Duration
}

// Exponential doubles the wait after each attempt, starting at Base and
// capped at Max. Rate limit errors start from a floor instead: the provider
// hint plus RateLimitPad, or RateLimitDefault when no hint was given. The
// floor doubles per attempt up to RateLimitMax, and never drops below the
// floor itself.
type Exponential struct {
	Base             time.Duration
	Max              time.Duration
	RateLimitPad     time.Duration
	RateLimitDefault time.Duration
	RateLimitMax     time.Duration
}

// DefaultExponential returns the standard schedule: 2s doubling to 60s,
// with rate limits starting at hint+5s or 40s and doubling to 5m.
func DefaultExponential() Exponential {
	return Exponential{
		Base:             2 * time.Second,
		Max:              60 * time.Second,
		RateLimitPad:     5 * time.Second,
		RateLimitDefault: 40 * time.Second,
		RateLimitMax:     5 * time.Minute,
	}
}

func (e Exponential) Delay(attempt int, err error) time.Duration {
	var rl *model.RateLimitError
	if errors.As(err, &rl) {
		floor := e.RateLimitDefault
		if rl.RetryAfter > 0 {
			floor = rl.RetryAfter + e.RateLimitPad
		}
		return max(double(floor, attempt, e.RateLimitMax), floor)
	}
	return double(e.Base, attempt, e.Max)
}

// double returns d * 2^(attempt-1), capped at limit when limit is positive.
func double(d time.Duration, attempt int, limit time.Duration) time.Duration {
	for i := 1; i < attempt; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	if limit > 0 {
		return min(d, limit)
	}
	return d
}
