package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("prefetch queue full")
	ErrClosed = errors.New("prefetch queue closed")
)
