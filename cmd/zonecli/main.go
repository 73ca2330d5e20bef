// Command zonecli prints the strike-zone count matrix of a Statcast CSV export.
//
//	zonecli -file darvish.csv -pitch Slider
//	curl -s "$SAVANT_URL" | zonecli -json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/okian/pitchdash/internal/adapters/statcast"
	"github.com/okian/pitchdash/internal/domain/summary"
	"github.com/okian/pitchdash/internal/domain/types"
)

// Exit codes.
const (
	exitOK    = 0
	exitData  = 1
	exitUsage = 2
)

type report struct {
	Pitch      string           `json:"pitch"`
	PitchNames []string         `json:"pitch_names"`
	Heatmap    types.ZoneMatrix `json:"heatmap"`
	Summary    types.Summary    `json:"summary"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zonecli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file    = fs.String("file", "-", "Statcast CSV file, - for stdin")
		pitch   = fs.String("pitch", summary.AllPitches, "pitch name to keep, or All")
		asJSON  = fs.Bool("json", false, "print JSON instead of a table")
		keepAll = fs.Bool("keep-incomplete", false, "keep rows missing chart fields")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	in := stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Fprintln(stderr, "zonecli:", err)
			return exitUsage
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	rep, err := build(in, *pitch, !*keepAll)
	if err != nil {
		fmt.Fprintln(stderr, "zonecli:", err)
		return exitData
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintln(stderr, "zonecli:", err)
			return exitData
		}
		return exitOK
	}
	printTable(stdout, rep)
	return exitOK
}

func build(in io.Reader, pitch string, dropIncomplete bool) (report, error) {
	records, err := statcast.Decode(in)
	if err != nil {
		return report{}, err
	}
	if dropIncomplete {
		records = summary.DropIncomplete(records)
	}
	names := summary.PitchNames(records)
	records = summary.FilterByPitchName(records, pitch)

	m, err := summary.Heatmap(records)
	if err != nil {
		return report{}, err
	}
	return report{
		Pitch:      pitch,
		PitchNames: names,
		Heatmap:    types.NewZoneMatrix(m),
		Summary:    types.NewSummary(summary.Summarize(records)),
	}, nil
}

func printTable(w io.Writer, rep report) {
	fmt.Fprintf(w, "zone counts (%s): %d in zone, %d pitches\n", rep.Pitch, rep.Heatmap.Total, rep.Summary.Count)
	width := len(fmt.Sprint(rep.Heatmap.Max))
	for _, row := range rep.Heatmap.Rows {
		cells := make([]string, len(row))
		for i, n := range row {
			cells[i] = fmt.Sprintf("%*d", width, n)
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(cells, "  "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "avg release speed:  %s\n", value(rep.Summary.AvgReleaseSpeed, "mph"))
	fmt.Fprintf(w, "avg days between:   %s\n", value(rep.Summary.AvgDaysSincePrevGame, "days"))
	fmt.Fprintf(w, "avg exit velocity:  %s\n", value(rep.Summary.AvgLaunchSpeed, "mph"))
	fmt.Fprintf(w, "avg hit distance:   %s\n", value(rep.Summary.AvgHitDistance, "ft"))

	if len(rep.Summary.Events) > 0 {
		events := make([]string, 0, len(rep.Summary.Events))
		for e := range rep.Summary.Events {
			events = append(events, e)
		}
		sort.Slice(events, func(i, j int) bool {
			ci, cj := rep.Summary.Events[events[i]], rep.Summary.Events[events[j]]
			if ci != cj {
				return ci > cj
			}
			return events[i] < events[j]
		})
		fmt.Fprintln(w, "events:")
		for _, e := range events {
			fmt.Fprintf(w, "  %-20s %d\n", e, rep.Summary.Events[e])
		}
	}
	fmt.Fprintf(w, "pitch types: %s\n", strings.Join(rep.PitchNames, ", "))
}

func value(x *float64, unit string) string {
	if x == nil || math.IsNaN(*x) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f %s", *x, unit)
}
