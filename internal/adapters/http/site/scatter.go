package site

import (
	"fmt"
	"math"

	"github.com/a-h/templ"
	svg "github.com/ajstarks/svgo"

	"github.com/okian/pitchdash/internal/domain/summary"
)

// Plot geometry in SVG user units.
const (
	plotSize = 360
	plotPad  = 40
)

// Strike zone outline in inches: half the plate width either side of
// center, and a typical knee-to-letters band.
const (
	zoneHalfWidth = 8.5
	zoneBottom    = 18.0
	zoneTop       = 42.0
)

var palette = []string{"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02", "#a6761d", "#666666"}

// ScatterSpec describes one scatter plot.
type ScatterSpec struct {
	XLabel     string
	YLabel     string
	Series     []summary.Series
	StrikeZone bool // outline the strike zone
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) add(x, y float64) {
	b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
	b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
}

// pad widens the box by 5% and guarantees a non-zero extent.
func (b *bounds) pad() {
	dx, dy := b.maxX-b.minX, b.maxY-b.minY
	if dx == 0 {
		dx = 2
	}
	if dy == 0 {
		dy = 2
	}
	b.minX, b.maxX = b.minX-dx*0.05, b.maxX+dx*0.05
	b.minY, b.maxY = b.minY-dy*0.05, b.maxY+dy*0.05
}

func (b bounds) project(x, y float64) (int, int) {
	span := float64(plotSize - 2*plotPad)
	px := plotPad + (x-b.minX)/(b.maxX-b.minX)*span
	py := plotSize - plotPad - (y-b.minY)/(b.maxY-b.minY)*span
	return int(math.Round(px)), int(math.Round(py))
}

// Scatter renders series as an inline SVG, one color per pitch name.
func Scatter(s ScatterSpec) templ.Component {
	return component(func(h *writer) {
		b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
		n := 0
		for _, ser := range s.Series {
			for _, p := range ser.Points {
				b.add(p.X, p.Y)
				n++
			}
		}
		if n == 0 {
			h.raw(`<p class="empty">No pitches</p>`)
			return
		}
		if s.StrikeZone {
			b.add(-zoneHalfWidth, zoneBottom)
			b.add(zoneHalfWidth, zoneTop)
		}
		b.pad()

		canvas := svg.New(h)
		canvas.Start(plotSize, plotSize, `class="scatter"`, fmt.Sprintf(`viewBox="0 0 %d %d"`, plotSize, plotSize), `role="img"`)
		canvas.Rect(plotPad, plotPad, plotSize-2*plotPad, plotSize-2*plotPad, "fill:none;stroke:#ccc")
		if b.minX < 0 && b.maxX > 0 {
			x0, _ := b.project(0, 0)
			canvas.Line(x0, plotPad, x0, plotSize-plotPad, "stroke:#ddd")
		}
		if b.minY < 0 && b.maxY > 0 {
			_, y0 := b.project(0, 0)
			canvas.Line(plotPad, y0, plotSize-plotPad, y0, "stroke:#ddd")
		}
		if s.StrikeZone {
			x1, y1 := b.project(-zoneHalfWidth, zoneTop)
			x2, y2 := b.project(zoneHalfWidth, zoneBottom)
			canvas.Rect(x1, y1, x2-x1, y2-y1, `class="zone"`, "fill:none;stroke:#222")
		}
		for i, ser := range s.Series {
			canvas.Gstyle("fill-opacity:0.6;fill:" + palette[i%len(palette)])
			canvas.Title(ser.PitchName)
			for _, p := range ser.Points {
				px, py := b.project(p.X, p.Y)
				canvas.Circle(px, py, 3)
			}
			canvas.Gend()
		}
		canvas.Text(plotSize/2, plotSize-8, s.XLabel, "text-anchor:middle;font-size:11px")
		canvas.Text(12, plotSize/2, s.YLabel, fmt.Sprintf(`transform="rotate(-90 12 %d)"`, plotSize/2), "text-anchor:middle;font-size:11px")
		// Legend in the top margin, two rows per column.
		for i, ser := range s.Series {
			canvas.Text(plotPad+(i/2)*110, plotPad/2+(i%2)*12, ser.PitchName, "font-size:10px;fill:"+palette[i%len(palette)])
		}
		canvas.End()
	})
}
