package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUpstream marks every failure to obtain a usable upstream response.
var ErrUpstream = errors.New("upstream request failed")

// StatusError reports a non-200 upstream response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Unwrap ties StatusError to ErrUpstream.
func (e *StatusError) Unwrap() error { return ErrUpstream }

// Transient reports whether retrying the request may succeed.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}
