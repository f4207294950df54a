package request

import (
	"errors"
	"fmt"
	"net/http"
)

// retryableStatuses is the fixed set of HTTP statuses worth another attempt.
var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:        true, // 408
	http.StatusRequestEntityTooLarge: true, // 413
	http.StatusTooManyRequests:       true, // 429
	http.StatusInternalServerError:   true, // 500
	http.StatusBadGateway:            true, // 502
	http.StatusServiceUnavailable:    true, // 503
	http.StatusGatewayTimeout:        true, // 504
}

// StatusError captures a non-2xx upstream response
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Retryable reports whether the status is in the transient set
func (e *StatusError) Retryable() bool {
	return retryableStatuses[e.StatusCode]
}

// ValidationError reports a response body that decoded but did not match the
// expected shape. It indicates a contract break with the remote service and
// is never retried.
type ValidationError struct {
	URL string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request: response from %s failed validation: %v", e.URL, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// shouldRetry classifies an attempt failure. Connection failures and
// timeouts are transient; statuses follow the fixed retryable set; a
// validation failure is terminal.
func shouldRetry(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
