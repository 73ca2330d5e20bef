package site

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/a-h/templ"
	svg "github.com/ajstarks/svgo"

	service "github.com/okian/pitchdash/internal/app"
	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/internal/domain/summary"
	"github.com/okian/pitchdash/internal/domain/zone"
)

// Page is everything one render of the dashboard shows.
type Page struct {
	Title   string
	Players []string
	Query   service.Query
	View    *service.DashboardView // nil when the computation failed
	Err     string
}

// writer accumulates the first write error so components read top-down.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *writer) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// Write lets svg canvases draw into the component output.
func (h *writer) Write(p []byte) (int, error) {
	if h.err != nil {
		return 0, h.err
	}
	var n int
	n, h.err = h.w.Write(p)
	return n, h.err
}

func (h *writer) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *writer) printf(format string, a ...any) { h.raw(fmt.Sprintf(format, a...)) }

func (h *writer) render(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func component(fn func(h *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// Dashboard renders the full page.
func Dashboard(p Page) templ.Component {
	return component(func(h *writer) {
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(p.Title)
		h.raw(`</title><style>` + stylesheet + `</style></head><body>`)
		h.raw(`<header><h1>`)
		h.text(p.Title)
		h.raw(`</h1></header><div class="layout">`)
		h.render(Sidebar(p))
		h.raw(`<main>`)
		if p.Err != "" {
			h.raw(`<div class="error" role="alert">`)
			h.text(p.Err)
			h.raw(`</div>`)
		}
		if v := p.View; v != nil {
			h.render(ValueBoxes(v.Summary))
			h.raw(`<section class="cards">`)
			h.raw(`<div class="card"><h2>Strike Zone Heat Map</h2>`)
			h.render(Heatmap(v.Heatmap))
			h.raw(`</div><div class="card"><h2>Pitch Movement</h2>`)
			h.render(Scatter(ScatterSpec{XLabel: "horizontal break (in)", YLabel: "induced vertical break (in)", Series: v.Movement}))
			h.raw(`</div><div class="card"><h2>Ball Position Over Plate</h2>`)
			h.render(Scatter(ScatterSpec{XLabel: "plate x (in)", YLabel: "plate z (in)", Series: v.Location, StrikeZone: true}))
			h.raw(`</div></section>`)
		}
		h.raw(`</main></div></body></html>`)
	})
}

// Sidebar renders the filter form.
func Sidebar(p Page) templ.Component {
	return component(func(h *writer) {
		q := p.Query
		h.raw(`<aside><h2>Filter controls</h2><form method="get" action="/">`)

		h.raw(`<label for="type">Role</label><select id="type" name="type">`)
		for _, pt := range []model.PlayerType{model.Pitcher, model.Batter} {
			option(h, string(pt), string(pt), pt == q.Type)
		}
		h.raw(`</select>`)

		h.raw(`<label for="player">Player</label><select id="player" name="player">`)
		listed := false
		for _, name := range p.Players {
			listed = listed || name == q.Player
			option(h, name, name, name == q.Player)
		}
		if !listed && q.Player != "" {
			option(h, q.Player, q.Player, true)
		}
		h.raw(`</select>`)

		start, end := "", ""
		if !q.Range.Start.IsZero() {
			start, end = q.Range.StartString(), q.Range.EndString()
		}
		h.raw(`<label for="start">From</label><input type="date" id="start" name="start" value="`)
		h.text(start)
		h.raw(`"><label for="end">To</label><input type="date" id="end" name="end" value="`)
		h.text(end)
		h.raw(`">`)

		names := []string{summary.AllPitches}
		if p.View != nil && len(p.View.PitchNames) > 0 {
			names = p.View.PitchNames
		}
		h.raw(`<label for="pitch">Pitch</label><select id="pitch" name="pitch">`)
		for _, name := range names {
			option(h, name, name, name == q.Pitch)
		}
		h.raw(`</select><button type="submit">Update</button></form></aside>`)
	})
}

func option(h *writer, value, label string, selected bool) {
	h.raw(`<option value="`)
	h.text(value)
	h.raw(`"`)
	if selected {
		h.raw(` selected`)
	}
	h.raw(`>`)
	h.text(label)
	h.raw(`</option>`)
}

// ValueBoxes renders the scalar aggregates.
func ValueBoxes(s summary.Summary) templ.Component {
	return component(func(h *writer) {
		boxes := []struct{ label, value string }{
			{"Number of Pitches", fmt.Sprintf("%d", s.Count)},
			{"Average Pitch Velocity", unit(s.AvgReleaseSpeed, "mph")},
			{"Average Days Between Games", unit(s.AvgDaysSincePrevGame, "days")},
			{"Average Exit Velocity", unit(s.AvgLaunchSpeed, "mph")},
			{"Average Hit Distance", unit(s.AvgHitDistance, "ft")},
		}
		h.raw(`<section class="boxes">`)
		for _, b := range boxes {
			h.raw(`<div class="box"><span class="label">`)
			h.text(b.label)
			h.raw(`</span><span class="value">`)
			h.text(b.value)
			h.raw(`</span></div>`)
		}
		h.raw(`</section>`)
	})
}

func unit(x float64, u string) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f %s", x, u)
}

// Heatmap cell geometry in SVG user units.
const heatCell = 80

// Heatmap renders the zone grid as SVG cells shaded on a diverging scale,
// zone 1 top-left through zone 9 bottom-right.
func Heatmap(m zone.CountMatrix) templ.Component {
	return component(func(h *writer) {
		peak := m.Max()
		side := heatCell * zone.Cols
		h.raw(`<figure class="heatmap">`)
		canvas := svg.New(h)
		canvas.Start(side, heatCell*zone.Rows, `role="img"`)
		canvas.Gstyle("text-anchor:middle;font-size:18px;font-weight:600")
		for r := range zone.Rows {
			for c := range zone.Cols {
				n := m[r][c]
				x, y := c*heatCell, r*heatCell
				canvas.Group(fmt.Sprintf(`data-zone="%d"`, r*zone.Cols+c+1))
				canvas.Title(fmt.Sprintf("zone %d: %d", r*zone.Cols+c+1, n))
				canvas.Rect(x, y, heatCell, heatCell, "stroke:#fff;fill:"+Diverging(n, peak))
				canvas.Text(x+heatCell/2, y+heatCell/2+6, strconv.Itoa(n), "fill:"+ink(n, peak))
				canvas.Gend()
			}
		}
		canvas.Gend()
		canvas.End()
		h.printf(`<figcaption>%d pitches in the zone</figcaption></figure>`, m.Total())
	})
}

// ink picks a label color readable on the cell's shade.
func ink(n, peak int) string {
	if peak <= 0 {
		return "#222"
	}
	if t := float64(n) / float64(peak); t < 0.2 || t > 0.8 {
		return "#fff"
	}
	return "#222"
}

// Diverging maps n in [0, peak] onto blue, white at the midpoint, then red.
func Diverging(n, peak int) string {
	if peak <= 0 {
		return hex(white)
	}
	t := float64(n) / float64(peak)
	t = math.Max(0, math.Min(1, t))
	if t < 0.5 {
		return hex(lerp(blue, white, t*2))
	}
	return hex(lerp(white, red, (t-0.5)*2))
}

type rgb [3]float64

var (
	blue  = rgb{33, 102, 172}
	white = rgb{247, 247, 247}
	red   = rgb{178, 24, 43}
)

func lerp(a, b rgb, t float64) rgb {
	var out rgb
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

func hex(c rgb) string {
	return fmt.Sprintf("#%02x%02x%02x", int(math.Round(c[0])), int(math.Round(c[1])), int(math.Round(c[2])))
}

const stylesheet = `
body{margin:0;font-family:system-ui,sans-serif;color:#222;background:#fafafa}
header{padding:.75rem 1.5rem;background:#0b3d91;color:#fff}
header h1{margin:0;font-size:1.3rem}
.layout{display:flex;gap:1.5rem;padding:1.5rem}
aside{width:260px;flex:none}
aside form{display:flex;flex-direction:column;gap:.4rem}
main{flex:1;min-width:0}
.error{padding:.75rem;border:1px solid #b2182b;background:#fde0dd;margin-bottom:1rem}
.boxes{display:flex;flex-wrap:wrap;gap:1rem;margin-bottom:1rem}
.box{flex:1;min-width:160px;padding:1rem;background:#fff;border-radius:6px;box-shadow:0 1px 3px #0002}
.box .label{display:block;font-size:.85rem;color:#555}
.box .value{display:block;font-size:1.6rem;font-weight:600}
.cards{display:grid;grid-template-columns:repeat(auto-fit,minmax(340px,1fr));gap:1rem}
.card{background:#fff;padding:1rem;border-radius:6px;box-shadow:0 1px 3px #0002}
.card h2{font-size:1rem;margin-top:0}
.heatmap{margin:auto;text-align:center}
.heatmap figcaption{font-size:.85rem;color:#555;padding-top:.5rem}
`
