package service

import "errors"

// Sentinel kinds for service errors. The HTTP layer maps them to statuses.
var (
	ErrInvalidQuery  = errors.New("invalid query")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUpstream      = errors.New("upstream unavailable")
	ErrQueueFull     = errors.New("prefetch queue full")
	ErrNotStarted    = errors.New("service not started")
	ErrNotConfigured = errors.New("service dependency missing")
)
