package azdo

import (
	"errors"
	"fmt"
)

// RequestError reports a failed call to the REST API: a transport failure, a
// non-2xx response or an undecodable body. StatusCode is 0 for transport errors.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s (status %d): %v", e.Method, e.URL, e.StatusCode, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from err when it wraps a RequestError.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}
