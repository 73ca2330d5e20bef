package model

import (
	"fmt"
	"strings"
	"time"
)

// PlayerType selects which side of the pitch a player is looked up on.
type PlayerType string

// Supported player types.
const (
	Pitcher PlayerType = "pitcher"
	Batter  PlayerType = "batter"
)

// ParsePlayerType accepts "pitcher", "batter" and "hitter" (case-insensitive).
// An empty string defaults to Pitcher.
func ParsePlayerType(s string) (PlayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pitcher":
		return Pitcher, nil
	case "batter", "hitter":
		return Batter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlayerType, s)
}

// Player is a roster entry resolved to the provider's MLBAM id.
type Player struct {
	Name    string // "Last, First"
	MLBAMID int
	Type    PlayerType
}

// DateRange is an inclusive range of game dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates and validates start <= end.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start %q", ErrInvalidDateRange, start)
	}
	e, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end %q", ErrInvalidDateRange, end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidDateRange, end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// StartString returns the start date in provider format.
func (r DateRange) StartString() string { return r.Start.Format(DateLayout) }

// EndString returns the end date in provider format.
func (r DateRange) EndString() string { return r.End.Format(DateLayout) }

// String renders the range as "start..end".
func (r DateRange) String() string { return r.StartString() + ".." + r.EndString() }
