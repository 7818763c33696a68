// Package retry wraps remote operations with bounded exponential
// backoff and retryable/non-retryable error classification.
package retry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/veritrail/regsync/internal/logger"
)

// Classifier decides whether an error is worth retrying and maps it to
// an error code. Connector packages supply classifiers that understand
// their API's failure modes.
type Classifier func(err error) (code string, retryable bool)

// Policy holds the backoff parameters for a wrapped operation.
type Policy struct {
	// MaxRetries is how many times a failing operation is re-attempted
	// after the first call.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Classify decides retryability. A nil classifier treats every
	// error as retryable with an empty code.
	Classify Classifier
}

// DefaultPolicy returns the standard policy for remote calls.
func DefaultPolicy(classify Classifier) Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Classify:   classify,
	}
}

// Error annotates the final error of an exhausted or non-retryable
// operation with classification and attempt context. The original
// error remains reachable through Unwrap.
type Error struct {
	// Op is the operation name supplied to Do.
	Op string

	// Code is the classifier's code for the final error.
	Code string

	// Retryable is the classifier's verdict on the final error.
	Retryable bool

	// Attempt is the zero-based attempt that produced the final error.
	Attempt int

	// MaxRetries echoes the policy.
	MaxRetries int

	// Err is the original error, unmodified.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (attempt %d/%d): %v", e.Op, e.Attempt+1, e.MaxRetries+1, e.Err)
}

// Unwrap exposes the original error to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Context returns the annotation map carried into SyncError records.
func (e *Error) Context() map[string]string {
	return map[string]string{
		"operation":  e.Op,
		"attempt":    strconv.Itoa(e.Attempt),
		"maxRetries": strconv.Itoa(e.MaxRetries),
	}
}

// Do runs fn under the policy, retrying classified-retryable failures
// with delay min(BaseDelay * 2^attempt, MaxDelay). The zero value of T
// and an *Error wrapping the last cause are returned once retries are
// exhausted or a non-retryable error occurs.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(p, attempt-1)
			logger.Debug("Retrying %s in %s (attempt %d/%d)", op, delay, attempt+1, p.MaxRetries+1)
			select {
			case <-ctx.Done():
				return zero, &Error{Op: op, Code: "CANCELLED", Attempt: attempt, MaxRetries: p.MaxRetries, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		code, retryable := classify(p, err)
		if !retryable {
			return zero, &Error{Op: op, Code: code, Retryable: false, Attempt: attempt, MaxRetries: p.MaxRetries, Err: err}
		}
		if attempt == p.MaxRetries {
			return zero, &Error{Op: op, Code: code, Retryable: true, Attempt: attempt, MaxRetries: p.MaxRetries, Err: err}
		}
	}

	// Unreachable: the loop always returns.
	return zero, lastErr
}

// backoffDelay computes the capped exponential delay for an attempt.
func backoffDelay(p Policy, attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if delay <= 0 || delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func classify(p Policy, err error) (string, bool) {
	if p.Classify == nil {
		return "", true
	}
	return p.Classify(err)
}
