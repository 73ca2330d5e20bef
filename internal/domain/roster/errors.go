package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrMalformed = errors.New("malformed roster")
	ErrBadName   = errors.New("name must be \"Last, First\"")
)
