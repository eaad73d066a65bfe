package farm

import (
	"errors"
	"fmt"
)

const maxMessageLen = 512

// StatusError is a single attempt that got an unexpected HTTP status.
// It is transient: CallWithRetry retries it like a transport failure.
type StatusError struct {
	URL        string
	StatusCode int
	Expected   int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with %d (expected %d): %s",
		e.URL, e.StatusCode, e.Expected, truncate(e.Body))
}

// RetryError is returned when the retry budget ran out after at least one
// response was received. It carries the last status and body observed.
type RetryError struct {
	URL        string
	Attempts   int
	StatusCode int
	Message    string
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("request to %s failed %d times. Last failure code=%d, message=%s.",
		e.URL, e.Attempts, e.StatusCode, truncate(e.Message))
}

// NoResponseError is returned when the retry budget ran out and no attempt
// ever received a response.
type NoResponseError struct {
	Attempts int
	Err      error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("request failed after %d attempts, last err=%v", e.Attempts, e.Err)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted reports whether err is a RetryError or a NoResponseError.
func IsRetryExhausted(err error) bool {
	var re *RetryError
	var nr *NoResponseError
	return errors.As(err, &re) || errors.As(err, &nr)
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}
