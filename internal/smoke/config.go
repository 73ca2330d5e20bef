// Package smoke drives a running pitchdash server end to end: it lists a
// roster, prefetches players concurrently, waits for the cache to fill and
// checks every heat map it gets back.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Type       string        // pitcher or batter
	Players    int           // Number of roster players to exercise; 0 means all
	Start, End string        // Date range; empty uses the server default
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for prefetch jobs to drain
	ReportFile string        // Optional JSON report path
	Verbose    bool          // Log every request
}

// Stats holds run statistics.
type Stats struct {
	PlayersListed     int           `json:"players_listed"`
	PrefetchSubmitted int           `json:"prefetch_submitted"`
	PrefetchAccepted  int           `json:"prefetch_accepted"`
	PrefetchDuplicate int           `json:"prefetch_duplicate"`
	PrefetchRejected  int           `json:"prefetch_rejected"`
	PrefetchFailed    int           `json:"prefetch_failed"`
	HeatmapsChecked   int           `json:"heatmaps_checked"`
	HeatmapsFailed    int           `json:"heatmaps_failed"`
	PitchesInZone     int           `json:"pitches_in_zone"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	Duration          time.Duration `json:"duration"`
}

// Outcome of a single prefetch submission.
type Outcome string

// Prefetch outcomes.
const (
	Accepted  Outcome = "accepted"
	Duplicate Outcome = "duplicate"
	Rejected  Outcome = "rejected"
	Failed    Outcome = "failed"
)

// Check is the verdict on one player's heat map.
type Check struct {
	Player string `json:"player"`
	Status int    `json:"status"`
	Total  int    `json:"total"`
	Err    string `json:"error,omitempty"`
}

// Report is what a run writes to ReportFile.
type Report struct {
	Config Config  `json:"config"`
	Stats  Stats   `json:"stats"`
	Checks []Check `json:"checks"`
}
