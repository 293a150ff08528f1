package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/epicycle"
	"github.com/gogpu/epicycle/backend"
)

// glyph is drawn in every cell a strip passes through.
const glyph = '•'

// vertexAt decodes vertex i of a buffer of trail records.
func vertexAt(data []byte, i int) epicycle.Record {
	return epicycle.DecodeRecord(data[i*backend.VertexStride:])
}

// grid maps world coordinates onto a cols x rows cell grid.
type grid struct {
	cols, rows int
	sx, sy     float64
}

func newGrid(cfg backend.Config, cols, rows int) grid {
	sx, sy := cfg.Scale(cols, 2*rows)
	return grid{cols: cols, rows: rows, sx: sx, sy: sy}
}

// project returns the cell of world point (x, y). The result may lie
// outside the grid.
func (g grid) project(x, y float32) (col, row int) {
	nx := float64(x) * g.sx
	ny := float64(y) * g.sy
	col = int(math.Round((nx + 1) / 2 * float64(g.cols-1)))
	row = int(math.Round((1 - ny) / 2 * float64(g.rows-1)))
	return col, row
}

func (g grid) contains(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// line calls plot for every cell on the segment from (x0, y0) to (x1, y1),
// both ends included.
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	stepX, stepY := 1, 1
	if x0 > x1 {
		stepX = -1
	}
	if y0 > y1 {
		stepY = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += stepX
		}
		if e2 <= dx {
			e += dx
			y0 += stepY
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func channel(v float64) int32 {
	return int32(math.Round(min(max(v, 0), 1) * 255))
}

func rgb(c [3]float32) tcell.Color {
	return tcell.NewRGBColor(channel(float64(c[0])), channel(float64(c[1])), channel(float64(c[2])))
}

func background(c gputypes.Color) tcell.Style {
	return tcell.StyleDefault.Background(tcell.NewRGBColor(channel(c.R), channel(c.G), channel(c.B)))
}
