// Package roster holds the selectable player lists for the dashboard.
//
// Each roster line is a single CSV field of the form "Last, First". Lookups
// are case and accent insensitive so "rodon, carlos" finds "Rodón, Carlos".
package roster

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/pitchdash/internal/domain/model"
)

//go:embed data/*.csv
var defaults embed.FS

// Roster is an ordered, de-duplicated list of player names.
type Roster struct {
	names []string
	index map[string]string // folded -> canonical
}

// Default returns the embedded roster for a player type.
func Default(pt model.PlayerType) (*Roster, error) {
	name := "data/pitchers.csv"
	if pt == model.Batter {
		name = "data/batters.csv"
	}
	f, err := defaults.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open embedded roster: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Load reads a roster from a file on disk.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads one name per record from the first CSV column.
// Blank lines and duplicate names are skipped; a name without a comma is rejected.
func Parse(r io.Reader) (*Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	ros := &Roster{index: make(map[string]string)}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(rec) == 0 {
			continue
		}
		name := strings.TrimSpace(rec[0])
		if name == "" {
			continue
		}
		if _, _, err := Split(name); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		key := Fold(name)
		if _, dup := ros.index[key]; dup {
			continue
		}
		ros.index[key] = name
		ros.names = append(ros.names, name)
	}
	return ros, nil
}

// Names returns the roster in file order.
func (r *Roster) Names() []string {
	return append([]string(nil), r.names...)
}

// Len is the number of players on the roster.
func (r *Roster) Len() int { return len(r.names) }

// Find resolves a user-supplied name to its canonical roster spelling.
func (r *Roster) Find(name string) (string, bool) {
	canonical, ok := r.index[Fold(name)]
	return canonical, ok
}

// Split breaks "Last, First" on the last comma.
func Split(name string) (last, first string, err error) {
	i := strings.LastIndex(name, ",")
	if i < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	last = strings.TrimSpace(name[:i])
	first = strings.TrimSpace(name[i+1:])
	if last == "" || first == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return last, first, nil
}

// Fold normalises a name for comparison: accents stripped, case folded,
// inner whitespace collapsed.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
