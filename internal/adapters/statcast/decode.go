package statcast

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pitchdash/internal/domain/model"
)

// Column names in the Savant "details" CSV.
const (
	colGameDate     = "game_date"
	colGamePK       = "game_pk"
	colAtBat        = "at_bat_number"
	colPitchNumber  = "pitch_number"
	colPitchName    = "pitch_name"
	colPThrows      = "p_throws"
	colEvents       = "events"
	colReleaseSpeed = "release_speed"
	colPfxX         = "pfx_x"
	colPfxZ         = "pfx_z"
	colPlateX       = "plate_x"
	colPlateZ       = "plate_z"
	colDaysSince    = "pitcher_days_since_prev_game"
	colLaunchSpeed  = "launch_speed"
	colHitDistance  = "hit_distance_sc"
	colZone         = "zone"
)

// Decode parses Savant CSV into records, matching columns by header name.
// Only the zone column is required; other absent columns read as missing.
// An empty body decodes to no records.
func Decode(r io.Reader) ([]model.PitchRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		// Savant repeats a few legacy columns; the first one wins.
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	if _, ok := idx[colZone]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colZone)
	}

	var out []model.PitchRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isEmptyRow(row) {
			continue
		}
		f := fields{idx: idx, row: row}
		out = append(out, model.PitchRecord{
			GameDate:                 f.date(colGameDate),
			GamePK:                   f.int(colGamePK),
			AtBatNumber:              f.int(colAtBat),
			PitchNumber:              f.int(colPitchNumber),
			PitchName:                f.text(colPitchName),
			PThrows:                  f.text(colPThrows),
			Events:                   f.text(colEvents),
			ReleaseSpeed:             f.float(colReleaseSpeed),
			PfxX:                     f.float(colPfxX),
			PfxZ:                     f.float(colPfxZ),
			PlateX:                   f.float(colPlateX),
			PlateZ:                   f.float(colPlateZ),
			PitcherDaysSincePrevGame: f.float(colDaysSince),
			LaunchSpeed:              f.float(colLaunchSpeed),
			HitDistance:              f.float(colHitDistance),
			Zone:                     f.raw(colZone),
		})
	}
	return out, nil
}

// DecodeBytes is Decode over an in-memory body.
func DecodeBytes(b []byte) ([]model.PitchRecord, error) {
	return Decode(bytes.NewReader(b))
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

type fields struct {
	idx map[string]int
	row []string
}

func (f fields) raw(col string) string {
	i, ok := f.idx[col]
	if !ok || i >= len(f.row) {
		return ""
	}
	return strings.TrimSpace(f.row[i])
}

func (f fields) text(col string) string {
	s := f.raw(col)
	if model.IsBlank(s) {
		return ""
	}
	return s
}

func (f fields) float(col string) float64 {
	s := f.raw(col)
	if model.IsBlank(s) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (f fields) int(col string) int {
	v := f.float(col)
	if math.IsNaN(v) {
		return 0
	}
	return int(v)
}

func (f fields) date(col string) time.Time {
	t, err := time.Parse(model.DateLayout, f.raw(col))
	if err != nil {
		return time.Time{}
	}
	return t
}
