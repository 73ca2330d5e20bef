package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotFound = errors.New("cache entry not found")
	ErrClosed   = errors.New("cache closed")
	ErrOpen     = errors.New("open cache failed")
)
