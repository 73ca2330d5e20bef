package statcast

import "errors"

// Sentinel kinds for Statcast errors.
var (
	ErrMissingColumn = errors.New("statcast csv missing column")
	ErrMalformedCSV  = errors.New("malformed statcast csv")
	ErrInvalidPlayer = errors.New("invalid player id")
)
