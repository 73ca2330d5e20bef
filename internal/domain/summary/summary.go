// Package summary derives the dashboard's tables from a player's pitch records.
//
// All functions are pure and return fresh slices; callers may share inputs
// across goroutines.
package summary

import (
	"math"
	"sort"

	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/zone"
)

// AllPitches selects every pitch type.
const AllPitches = "All"

// inchesPerFoot converts provider feet to the inches shown on scatter plots.
const inchesPerFoot = 12

// Summary holds the scalar aggregates shown in the value boxes.
// Means over an empty or all-missing column are NaN.
type Summary struct {
	Count                int
	AvgReleaseSpeed      float64
	AvgDaysSincePrevGame float64
	AvgLaunchSpeed       float64
	AvgHitDistance       float64
	Events               map[string]int
}

// Point is one scatter-plot marker, in inches.
type Point struct {
	X float64
	Y float64
}

// Series groups scatter points by pitch name.
type Series struct {
	PitchName string
	Points    []Point
}

// DropIncomplete removes records missing any field the charts depend on.
func DropIncomplete(records []model.PitchRecord) []model.PitchRecord {
	out := make([]model.PitchRecord, 0, len(records))
	for _, r := range records {
		if r.PitchName == "" || !r.HasZone() {
			continue
		}
		if anyMissing(r.ReleaseSpeed, r.PfxX, r.PfxZ, r.PlateX, r.PlateZ) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func anyMissing(xs ...float64) bool {
	for _, x := range xs {
		if model.Missing(x) {
			return true
		}
	}
	return false
}

// PitchNames lists distinct pitch names in first-seen order, led by AllPitches.
func PitchNames(records []model.PitchRecord) []string {
	seen := make(map[string]struct{})
	names := []string{AllPitches}
	for _, r := range records {
		if r.PitchName == "" {
			continue
		}
		if _, ok := seen[r.PitchName]; ok {
			continue
		}
		seen[r.PitchName] = struct{}{}
		names = append(names, r.PitchName)
	}
	return names
}

// FilterByPitchName keeps records of one pitch type. Empty or AllPitches keeps all.
func FilterByPitchName(records []model.PitchRecord, name string) []model.PitchRecord {
	if name == "" || name == AllPitches {
		return append([]model.PitchRecord(nil), records...)
	}
	out := make([]model.PitchRecord, 0, len(records))
	for _, r := range records {
		if r.PitchName == name {
			out = append(out, r)
		}
	}
	return out
}

// StrikeZone keeps records whose zone code is at most 9.
// Unreadable zones are kept so the matrix computation can report them.
func StrikeZone(records []model.PitchRecord) []model.PitchRecord {
	out := make([]model.PitchRecord, 0, len(records))
	for _, r := range records {
		code, err := r.ZoneCode()
		if err == nil && code > zone.Rows*zone.Cols {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Heatmap computes the strike-zone count matrix for the given records.
func Heatmap(records []model.PitchRecord) (zone.CountMatrix, error) {
	return zone.ComputeCountMatrix(StrikeZone(records))
}

// Summarize computes the value-box aggregates.
func Summarize(records []model.PitchRecord) Summary {
	s := Summary{
		Count:  len(records),
		Events: make(map[string]int),
	}
	var speed, days, launch, dist mean
	for _, r := range records {
		speed.add(r.ReleaseSpeed)
		days.add(r.PitcherDaysSincePrevGame)
		launch.add(r.LaunchSpeed)
		dist.add(r.HitDistance)
		if r.Events != "" {
			s.Events[r.Events]++
		}
	}
	s.AvgReleaseSpeed = speed.value()
	s.AvgDaysSincePrevGame = days.value()
	s.AvgLaunchSpeed = launch.value()
	s.AvgHitDistance = dist.value()
	return s
}

// mean accumulates a NaN-skipping average.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(x float64) {
	if model.Missing(x) {
		return
	}
	m.sum += x
	m.n++
}

func (m mean) value() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.n)
}

// MovementSeries plots horizontal against vertical break, in inches.
func MovementSeries(records []model.PitchRecord) []Series {
	return series(records, func(r model.PitchRecord) (float64, float64) { return r.PfxX, r.PfxZ })
}

// LocationSeries plots where pitches crossed the plate, in inches.
func LocationSeries(records []model.PitchRecord) []Series {
	return series(records, func(r model.PitchRecord) (float64, float64) { return r.PlateX, r.PlateZ })
}

func series(records []model.PitchRecord, xy func(model.PitchRecord) (float64, float64)) []Series {
	byName := make(map[string]*Series)
	for _, r := range records {
		x, y := xy(r)
		if anyMissing(x, y) {
			continue
		}
		s, ok := byName[r.PitchName]
		if !ok {
			s = &Series{PitchName: r.PitchName}
			byName[r.PitchName] = s
		}
		s.Points = append(s.Points, Point{X: x * inchesPerFoot, Y: y * inchesPerFoot})
	}
	out := make([]Series, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PitchName < out[j].PitchName })
	return out
}
