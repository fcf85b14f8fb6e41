package main

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/inamate/canvas/internal/document"
	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/export"
	"github.com/inamate/canvas/internal/geom"
)

const (
	gridFg      = "#3a3a3a"
	selectionFg = "#1e90ff"
	cursorFg    = "#ffaf00"
)

type cell struct {
	ch rune
	fg string
}

// surface is a terminal-sized raster. Each cell stands for a
// cellW×cellH block of stage pixels.
type surface struct {
	cols, rows int
	cellW      float64
	cellH      float64
	cells      [][]cell
}

func newSurface(cols, rows int, cellW, cellH float64) *surface {
	s := &surface{cols: cols, rows: rows, cellW: cellW, cellH: cellH}
	s.cells = make([][]cell, rows)
	for r := range s.cells {
		s.cells[r] = make([]cell, cols)
		for c := range s.cells[r] {
			s.cells[r][c] = cell{ch: ' '}
		}
	}
	return s
}

func (s *surface) set(col, row int, ch rune, fg string) {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return
	}
	s.cells[row][col] = cell{ch: ch, fg: fg}
}

func (s *surface) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / s.cellW)), int(math.Floor(y / s.cellH))
}

// center returns the stage-pixel center of a cell.
func (s *surface) center(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * s.cellW, (float64(row) + 0.5) * s.cellH
}

// paint replays draw commands onto the surface in painter's order.
func paint(cmds []engine.DrawCommand, s *surface) {
	var (
		elementType string
		elementRect geom.Rect
		pending     bool
	)

	for _, cmd := range cmds {
		switch cmd.Op {
		case engine.OpGrid:
			s.grid(cmd.Grid)
		case engine.OpElement:
			if cmd.Rect == nil {
				continue
			}
			elementType = cmd.Type
			elementRect = cmd.Matrix().TransformRect(geom.Rect{Width: cmd.Rect.Width, Height: cmd.Rect.Height})
			pending = true
		case engine.OpPath:
			if !pending || cmd.Fill == "" {
				continue
			}
			s.fill(elementType, elementRect, hexColor(export.ParseColor(cmd.Fill)))
			pending = false
		case engine.OpRestore:
			pending = false
		case engine.OpControls:
			if cmd.Rect != nil {
				s.frame(cmd.Matrix().TransformRect(*cmd.Rect), '─', '│', '■')
			}
		case engine.OpSelectionBox:
			if cmd.Rect != nil {
				s.frame(cmd.Matrix().TransformRect(*cmd.Rect), '┄', '┆', '+')
			}
		case engine.OpCursor:
			if cmd.Point == nil {
				continue
			}
			x, y := cmd.Matrix().TransformPoint(cmd.Point.X, cmd.Point.Y)
			col, row := s.cellOf(x, y)
			s.set(col, row, '▲', cursorFg)
			for i, ch := range shortID(cmd.ClientID) {
				s.set(col+2+i, row, ch, cursorFg)
			}
		}
	}
}

// grid marks cells that contain a grid line crossing.
func (s *surface) grid(g *engine.Grid) {
	if g == nil || g.Size < s.cellW {
		return
	}
	for row := 0; row < s.rows; row++ {
		if !crossesLine(float64(row)*s.cellH, s.cellH, g.OffsetY, g.Size) {
			continue
		}
		for col := 0; col < s.cols; col++ {
			if crossesLine(float64(col)*s.cellW, s.cellW, g.OffsetX, g.Size) {
				s.set(col, row, '·', gridFg)
			}
		}
	}
}

// crossesLine reports whether [start, start+span) contains a line of the
// lattice offset + k*size.
func crossesLine(start, span, offset, size float64) bool {
	d := math.Mod(start-offset, size)
	if d < 0 {
		d += size
	}
	return d == 0 || size-d < span
}

// fill covers cells whose centers fall inside the element's shape.
func (s *surface) fill(elementType string, r geom.Rect, fg string) {
	cx, cy := r.Center()
	rx, ry := r.Width/2, r.Height/2

	c0, r0 := s.cellOf(r.X, r.Y)
	c1, r1 := s.cellOf(r.X+r.Width, r.Y+r.Height)
	for row := max(r0, 0); row <= min(r1, s.rows-1); row++ {
		for col := max(c0, 0); col <= min(c1, s.cols-1); col++ {
			x, y := s.center(col, row)
			if !r.Contains(x, y) {
				continue
			}
			if elementType == document.ElementTypeCircle && rx > 0 && ry > 0 {
				dx, dy := (x-cx)/rx, (y-cy)/ry
				if dx*dx+dy*dy > 1 {
					continue
				}
			}
			s.set(col, row, '█', fg)
		}
	}
}

// frame outlines r with the given edge runes and corner rune.
func (s *surface) frame(r geom.Rect, horizontal, vertical, corner rune) {
	c0, r0 := s.cellOf(r.X, r.Y)
	c1, r1 := s.cellOf(r.X+r.Width, r.Y+r.Height)

	for col := c0 + 1; col < c1; col++ {
		s.set(col, r0, horizontal, selectionFg)
		s.set(col, r1, horizontal, selectionFg)
	}
	for row := r0 + 1; row < r1; row++ {
		s.set(c0, row, vertical, selectionFg)
		s.set(c1, row, vertical, selectionFg)
	}
	for _, p := range [][2]int{{c0, r0}, {c1, r0}, {c1, r1}, {c0, r1}} {
		s.set(p[0], p[1], corner, selectionFg)
	}
}

// String renders the surface, styling runs of same-colored cells.
func (s *surface) String() string {
	var b strings.Builder
	for i, row := range s.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for start < len(row) {
			end := start
			var run strings.Builder
			for end < len(row) && row[end].fg == row[start].fg {
				run.WriteRune(row[end].ch)
				end++
			}
			if fg := row[start].fg; fg != "" {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			start = end
		}
	}
	return b.String()
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

func shortID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	if len(id) > 6 {
		id = id[:6]
	}
	return id
}
