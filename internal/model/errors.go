package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownProvider indicates the configured model provider is not supported.
var ErrUnknownProvider = errors.New("unknown model provider")

// RateLimitError signals the provider rejected the request due to rate limiting.
// RetryAfter carries the provider's suggested wait when one was given.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// TransportError signals a transient failure reaching the provider.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError signals the model responded with a payload that does not
// satisfy the prediction schema.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid model payload: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid model payload: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }
