// Package export rasterizes a stage's draw commands to PNG.
package export

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/inamate/canvas/internal/engine"
)

var (
	gridColor      = color.RGBA{R: 0xe4, G: 0xe4, B: 0xe4, A: 0xff}
	selectionColor = color.RGBA{R: 0x1e, G: 0x90, B: 0xff, A: 0xff}
	boxFill        = color.RGBA{R: 0x1e, G: 0x90, B: 0xff, A: 0x33}
	labelColor     = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// Rasterizer paints draw commands onto an image.
type Rasterizer struct {
	Background color.Color
	// Labels draws each element's type in its top-left corner.
	Labels bool

	face font.Face
}

// NewRasterizer loads the label font.
func NewRasterizer() (*Rasterizer, error) {
	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	return &Rasterizer{
		Background: color.White,
		face: truetype.NewFace(ttfFont, &truetype.Options{
			Size:    11,
			DPI:     72,
			Hinting: font.HintingFull,
		}),
	}, nil
}

// Rasterize paints cmds, in order, onto a width×height image.
func (r *Rasterizer) Rasterize(cmds []engine.DrawCommand, width, height int) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetColor(r.Background)
	dc.Clear()
	dc.SetFontFace(r.face)

	for _, cmd := range cmds {
		switch cmd.Op {
		case engine.OpGrid:
			r.drawGrid(dc, cmd.Grid, width, height)
		case engine.OpSave:
			dc.Push()
		case engine.OpRestore:
			dc.Pop()
		case engine.OpPath:
			r.drawPath(dc, cmd)
		case engine.OpElement:
			if r.Labels && cmd.Rect != nil {
				r.drawLabel(dc, cmd)
			}
		case engine.OpControls:
			r.drawControls(dc, cmd)
		case engine.OpSelectionBox:
			r.drawSelectionBox(dc, cmd)
		case engine.OpCursor:
			r.drawCursor(dc, cmd)
		}
	}

	return dc.Image()
}

func (r *Rasterizer) drawGrid(dc *gg.Context, g *engine.Grid, width, height int) {
	if g == nil || g.Size < 4 {
		return
	}

	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for x := mod(g.OffsetX, g.Size); x < float64(width); x += g.Size {
		dc.DrawLine(x, 0, x, float64(height))
	}
	for y := mod(g.OffsetY, g.Size); y < float64(height); y += g.Size {
		dc.DrawLine(0, y, float64(width), y)
	}
	dc.Stroke()
}

// drawPath replays Canvas2D-style path segments through the command's
// transform.
func (r *Rasterizer) drawPath(dc *gg.Context, cmd engine.DrawCommand) {
	m := cmd.Matrix()
	dc.NewSubPath()

	for _, seg := range cmd.Path {
		if len(seg) == 0 {
			continue
		}
		verb, _ := seg[0].(string)
		args := make([]float64, 0, len(seg)-1)
		for _, v := range seg[1:] {
			args = append(args, toFloat64(v))
		}

		switch {
		case verb == "M" && len(args) >= 2:
			dc.MoveTo(m.TransformPoint(args[0], args[1]))
		case verb == "L" && len(args) >= 2:
			dc.LineTo(m.TransformPoint(args[0], args[1]))
		case verb == "C" && len(args) >= 6:
			x1, y1 := m.TransformPoint(args[0], args[1])
			x2, y2 := m.TransformPoint(args[2], args[3])
			x3, y3 := m.TransformPoint(args[4], args[5])
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		case verb == "Z":
			dc.ClosePath()
		}
	}

	if cmd.Fill != "" {
		dc.SetColor(ParseColor(cmd.Fill))
		if cmd.Stroke != "" {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if cmd.Stroke != "" {
		dc.SetColor(ParseColor(cmd.Stroke))
		dc.SetLineWidth(max(cmd.StrokeWidth, 1) * m.ScaleFactor())
		dc.Stroke()
	}
	dc.ClearPath()
}

func (r *Rasterizer) drawLabel(dc *gg.Context, cmd engine.DrawCommand) {
	m := cmd.Matrix()
	x, y := m.TransformPoint(0, 0)
	dc.SetColor(labelColor)
	dc.DrawString(cmd.Type, x+2, y-3)
}

func (r *Rasterizer) drawControls(dc *gg.Context, cmd engine.DrawCommand) {
	if cmd.Rect == nil {
		return
	}
	m := cmd.Matrix()
	s := m.TransformRect(*cmd.Rect)

	dc.SetColor(selectionColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(s.X, s.Y, s.Width, s.Height)
	dc.Stroke()

	half := cmd.HandleSize / 2
	for _, h := range cmd.Handles {
		x, y := m.TransformPoint(h.X, h.Y)
		dc.DrawRectangle(x-half, y-half, cmd.HandleSize, cmd.HandleSize)
		dc.SetColor(color.White)
		dc.FillPreserve()
		dc.SetColor(selectionColor)
		dc.Stroke()
	}
}

func (r *Rasterizer) drawSelectionBox(dc *gg.Context, cmd engine.DrawCommand) {
	if cmd.Rect == nil {
		return
	}
	s := cmd.Matrix().TransformRect(*cmd.Rect)

	dc.DrawRectangle(s.X, s.Y, s.Width, s.Height)
	dc.SetColor(boxFill)
	dc.FillPreserve()
	dc.SetColor(selectionColor)
	dc.SetLineWidth(1)
	dc.Stroke()
}

func (r *Rasterizer) drawCursor(dc *gg.Context, cmd engine.DrawCommand) {
	if cmd.Point == nil {
		return
	}
	x, y := cmd.Matrix().TransformPoint(cmd.Point.X, cmd.Point.Y)

	dc.MoveTo(x, y)
	dc.LineTo(x, y+14)
	dc.LineTo(x+10, y+10)
	dc.ClosePath()
	dc.SetColor(selectionColor)
	dc.Fill()

	if cmd.ClientID != "" {
		dc.SetColor(labelColor)
		dc.DrawString(cmd.ClientID, x+12, y+20)
	}
}

// ParseColor accepts CSS color names and #rgb / #rrggbb hex.
func ParseColor(s string) color.Color {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		var r8, g8, b8 uint8
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r8, &g8, &b8); err == nil {
			return color.RGBA{R: r8, G: g8, B: b8, A: 0xff}
		}
	}
	return color.Gray{Y: 0x88}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func mod(a, b float64) float64 {
	m := a - b*float64(int(a/b))
	if m < 0 {
		m += b
	}
	return m
}
