// Package zone maps the provider's strike-zone codes onto a 3x3 count grid.
//
// Codes 1-9 cover the strike zone left-to-right, top-to-bottom:
//
//	1 2 3
//	4 5 6
//	7 8 9
//
// Every other code (the out-of-zone regions 11-14, or anything unexpected)
// is ignored. A record whose zone is missing or not an integer is a data
// contract violation and fails the whole computation.
package zone

import (
	"fmt"
)

// Grid dimensions.
const (
	Rows = 3
	Cols = 3

	minZone = 1
	maxZone = Rows * Cols
)

// Zoned is the only thing the aggregator needs from a record.
type Zoned interface {
	ZoneCode() (int, error)
}

// identified is implemented by records that can name themselves in errors.
type identified interface {
	RecordID() string
}

// CountMatrix holds pitch counts per strike-zone cell, row-major.
type CountMatrix [Rows][Cols]int

// InvalidRecordError reports a record whose zone could not be read as an integer.
type InvalidRecordError struct {
	Index    int    // position in the input sequence
	RecordID string // empty when the record has no identity
	Err      error
}

func (e *InvalidRecordError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("invalid record %d (%s): %v", e.Index, e.RecordID, e.Err)
	}
	return fmt.Sprintf("invalid record %d: %v", e.Index, e.Err)
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }

// Cell returns the 0-indexed grid position of an in-zone code.
// ok is false for codes outside 1-9.
func Cell(code int) (row, col int, ok bool) {
	if code < minZone || code > maxZone {
		return 0, 0, false
	}
	return (code - 1) / Cols, (code - 1) % Cols, true
}

// ComputeCountMatrix counts in-zone records per grid cell.
// The input is not modified and the result does not depend on record order.
func ComputeCountMatrix[R Zoned](records []R) (CountMatrix, error) {
	var m CountMatrix
	for i, rec := range records {
		code, err := rec.ZoneCode()
		if err != nil {
			ire := &InvalidRecordError{Index: i, Err: err}
			if id, ok := any(rec).(identified); ok {
				ire.RecordID = id.RecordID()
			}
			return CountMatrix{}, ire
		}
		row, col, ok := Cell(code)
		if !ok {
			continue
		}
		m[row][col]++
	}
	return m, nil
}

// Total is the number of in-zone records counted.
func (m CountMatrix) Total() int {
	total := 0
	for _, row := range m {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Max is the largest cell count.
func (m CountMatrix) Max() int {
	hi := 0
	for _, row := range m {
		for _, v := range row {
			if v > hi {
				hi = v
			}
		}
	}
	return hi
}

// Count returns the count for a zone code, zero for out-of-zone codes.
func (m CountMatrix) Count(code int) int {
	row, col, ok := Cell(code)
	if !ok {
		return 0
	}
	return m[row][col]
}

// Rows returns the matrix as nested slices for JSON and rendering.
func (m CountMatrix) Rows() [][]int {
	out := make([][]int, Rows)
	for r := range m {
		out[r] = append([]int(nil), m[r][:]...)
	}
	return out
}
