package graph

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid graph client configuration")
	// ErrNoMorePages is returned when following a cursor past the last page
	ErrNoMorePages = errors.New("no more pages available")
	// ErrRequestFailed wraps transport failures where no response was read
	ErrRequestFailed = errors.New("request failed")
)

// Graph error codes that signal throttling.
var rateLimitCodes = []int{4, 17, 32, 613, 80000, 80001, 80002, 80003, 80004, 80005, 80006, 80008, 80009, 80014}

// APIError is the error object embedded in a Graph API response body
type APIError struct {
	StatusCode  int    `json:"-"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	Code        int    `json:"code"`
	Subcode     int    `json:"error_subcode,omitempty"`
	UserTitle   string `json:"error_user_title,omitempty"`
	UserMessage string `json:"error_user_msg,omitempty"`
	TraceID     string `json:"fbtrace_id,omitempty"`
	Body        string `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("graph API error: status %d: %s (#%d): %s", e.StatusCode, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("graph API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a missing object
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404 || (e.Code == 100 && e.Subcode == 33)
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403 || e.Code == 190
}

// Retryable reports whether an idempotent request failing with err may be sent again.
// Throttled buckets are never retried.
func Retryable(err error) bool {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return false
	}
	if errors.Is(err, ErrRequestFailed) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTransient()
}

// IsRateLimited checks if the error is one of the throttling codes
func (e *APIError) IsRateLimited() bool {
	return slices.Contains(rateLimitCodes, e.Code)
}

// IsTransient checks if retrying later may succeed
func (e *APIError) IsTransient() bool {
	return e.Code == 1 || e.Code == 2 || e.StatusCode >= 500
}

// RateLimitError is returned when a bucket is throttled
type RateLimitError struct {
	Bucket      string
	ThrottleEnd time.Time
	Cause       *APIError
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit reached for %s, retry after %s", e.Bucket, e.ThrottleEnd.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// RetryAfter returns how long until the throttle ends, relative to now
func (e *RateLimitError) RetryAfter(now time.Time) time.Duration {
	return max(e.ThrottleEnd.Sub(now), 0)
}

// IsRateLimited reports whether err is, or wraps, a throttling error
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}
