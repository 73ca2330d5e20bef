// Package types contains the JSON shapes served by the API.
package types

import (
	"math"

	"github.com/okian/pitchdash/internal/domain/summary"
	"github.com/okian/pitchdash/internal/domain/zone"
)

// ZoneMatrix is a 3x3 strike-zone count grid, row 0 at the top.
type ZoneMatrix struct {
	Rows  [][]int `json:"rows"`
	Max   int     `json:"max"`
	Total int     `json:"total"`
}

// NewZoneMatrix converts a count matrix.
func NewZoneMatrix(m zone.CountMatrix) ZoneMatrix {
	return ZoneMatrix{Rows: m.Rows(), Max: m.Max(), Total: m.Total()}
}

// Summary is summary.Summary with missing means as null.
type Summary struct {
	Count                int            `json:"count"`
	AvgReleaseSpeed      *float64       `json:"avg_release_speed"`
	AvgDaysSincePrevGame *float64       `json:"avg_days_since_prev_game"`
	AvgLaunchSpeed       *float64       `json:"avg_launch_speed"`
	AvgHitDistance       *float64       `json:"avg_hit_distance"`
	Events               map[string]int `json:"events"`
}

// NewSummary converts a domain summary.
func NewSummary(s summary.Summary) Summary {
	events := s.Events
	if events == nil {
		events = map[string]int{}
	}
	return Summary{
		Count:                s.Count,
		AvgReleaseSpeed:      Optional(s.AvgReleaseSpeed),
		AvgDaysSincePrevGame: Optional(s.AvgDaysSincePrevGame),
		AvgLaunchSpeed:       Optional(s.AvgLaunchSpeed),
		AvgHitDistance:       Optional(s.AvgHitDistance),
		Events:               events,
	}
}

// Optional returns nil for NaN, else a pointer to x rounded to two decimals.
func Optional(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	r := math.Round(x*100) / 100
	return &r
}

// Point is one scatter marker in inches.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the scatter markers of one pitch type.
type Series struct {
	PitchName string  `json:"pitch_name"`
	Points    []Point `json:"points"`
}

// NewSeries converts scatter series.
func NewSeries(in []summary.Series) []Series {
	out := make([]Series, 0, len(in))
	for _, s := range in {
		pts := make([]Point, len(s.Points))
		for i, p := range s.Points {
			pts[i] = Point{X: p.X, Y: p.Y}
		}
		out = append(out, Series{PitchName: s.PitchName, Points: pts})
	}
	return out
}

// Query echoes the selection a response was computed for.
type Query struct {
	Player  string `json:"player"`
	MLBAMID int    `json:"mlbam_id"`
	Type    string `json:"type"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Pitch   string `json:"pitch"`
}

// DashboardResponse carries everything one dashboard render needs.
type DashboardResponse struct {
	Query      Query      `json:"query"`
	PitchNames []string   `json:"pitch_names"`
	Summary    Summary    `json:"summary"`
	Heatmap    ZoneMatrix `json:"heatmap"`
	Movement   []Series   `json:"movement"`
	Location   []Series   `json:"location"`
}

// HeatmapResponse carries just the zone grid.
type HeatmapResponse struct {
	Query   Query      `json:"query"`
	Heatmap ZoneMatrix `json:"heatmap"`
}

// PlayersResponse lists the selectable players of one role.
type PlayersResponse struct {
	Type    string   `json:"type"`
	Default string   `json:"default,omitempty"`
	Players []string `json:"players"`
}

// PrefetchRequest asks for a player's data to be cached in the background.
type PrefetchRequest struct {
	Player string `json:"player"`
	Type   string `json:"type"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// PrefetchResponse reports the job serving a prefetch request.
type PrefetchResponse struct {
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
