// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format used by the upstream provider and the API.
const DateLayout = "2006-01-02"

// PitchRecord is one observed pitch or batted-ball event.
// Numeric fields the provider left blank are NaN.
type PitchRecord struct {
	GameDate    time.Time
	GamePK      int
	AtBatNumber int
	PitchNumber int

	PitchName string // e.g. "4-Seam Fastball"
	PThrows   string // "R" or "L"
	Events    string // plate appearance result, blank mid at-bat

	ReleaseSpeed             float64 // mph
	PfxX                     float64 // horizontal movement, feet
	PfxZ                     float64 // vertical movement, feet
	PlateX                   float64 // feet from center of plate
	PlateZ                   float64 // feet above ground
	PitcherDaysSincePrevGame float64
	LaunchSpeed              float64 // mph
	HitDistance              float64 // feet

	// Zone is the zone cell exactly as delivered. Use ZoneCode to read it.
	Zone string
}

// ZoneCode parses the raw zone cell into the provider's integer zone code.
// Float renderings of whole numbers ("5.0") are accepted.
func (p PitchRecord) ZoneCode() (int, error) {
	raw := strings.TrimSpace(p.Zone)
	if IsBlank(raw) {
		return 0, ErrZoneMissing
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", ErrZoneNotInteger, p.Zone)
	}
	return int(f), nil
}

// HasZone reports whether the zone cell carries any value at all.
func (p PitchRecord) HasZone() bool {
	return !IsBlank(strings.TrimSpace(p.Zone))
}

// RecordID identifies the pitch within the provider's data set.
func (p PitchRecord) RecordID() string {
	return fmt.Sprintf("%d-%d-%d", p.GamePK, p.AtBatNumber, p.PitchNumber)
}

// IsBlank reports whether a raw provider cell denotes a missing value.
func IsBlank(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "na", "nan", "none":
		return true
	}
	return false
}

// Missing reports whether a numeric field was absent upstream.
func Missing(x float64) bool { return math.IsNaN(x) }
