package downstream

import (
	"errors"
	"fmt"
)

// StatusError represents a non-2xx response from a downstream service. Message
// carries the downstream error message when the service provided one.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("downstream service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("downstream service returned status %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status from an error chain. It returns zero when
// the error did not originate from a downstream response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Message extracts the downstream error message from an error chain, if any.
func Message(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}
