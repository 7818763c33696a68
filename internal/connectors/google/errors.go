package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/veritrail/regsync/internal/core/domain"
)

// Common Google API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("google: resource not found")

	// ErrRateLimited indicates the API rate limit was exceeded. It
	// wraps the domain sentinel so core code can match it without
	// importing this package.
	ErrRateLimited = fmt.Errorf("google: %w", domain.ErrRateLimited)
)

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized
	}
	return false
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	if errors.Is(err, ErrForbidden) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusForbidden
	}
	return false
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
// Matches the wrapped domain sentinel, so both package sentinels hit.
func IsRateLimited(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// RetryAfter extracts the Retry-After hint from a rate-limit response.
// Returns zero when the response carries no usable hint.
func RetryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return 0
	}
	secs, convErr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if convErr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// WrapError converts a Google API error to a more specific error type.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return err
	}
}

// Classify maps an error to a sync error code and a retry verdict.
// Not-found and authorisation failures are never retried; rate limits,
// timeouts, server errors and transient network failures are.
func Classify(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case IsNotFound(err) || errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND", false
	case IsUnauthorized(err) || IsForbidden(err):
		return "UNAUTHORIZED", false
	case IsRateLimited(err):
		return "RATE_LIMITED", true
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT", true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= http.StatusInternalServerError {
		return "SERVER_ERROR", true
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return "NETWORK", true
	}

	// Unknown failures default to retryable: a later attempt may succeed.
	return "TRANSIENT", true
}
