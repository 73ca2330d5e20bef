package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrZoneMissing       = errors.New("zone missing")
	ErrZoneNotInteger    = errors.New("zone not an integer")
	ErrInvalidPlayerType = errors.New("invalid player type")
	ErrInvalidDateRange  = errors.New("invalid date range")
)
