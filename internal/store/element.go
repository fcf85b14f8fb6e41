package store

import (
	"maps"

	"github.com/inamate/canvas/internal/geom"
)

// Rect is an element's world-space geometry plus its paint rank.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ZIndex int     `json:"zIndex"`
}

// Bounds drops the paint rank.
func (r Rect) Bounds() geom.Rect {
	return geom.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Element is a positioned item on the stage. Type selects the renderer;
// Props is opaque to the engine.
type Element struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Rect  Rect           `json:"rect"`
	Props map[string]any `json:"props"`
}

func (el *Element) clone() Element {
	c := *el
	c.Props = maps.Clone(el.Props)
	return c
}

// ElementSpec describes an element that has not been inserted yet.
type ElementSpec struct {
	Type  string         `json:"type"`
	Rect  geom.Rect      `json:"rect"`
	Props map[string]any `json:"props"`
}

// SelectionBox is a client's rubber-band rectangle in world space.
type SelectionBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Hidden bool    `json:"hidden"`
}

// Rect returns the box geometry.
func (b SelectionBox) Rect() geom.Rect {
	return geom.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// BoxFromRect returns a visible selection box covering r.
func BoxFromRect(r geom.Rect) SelectionBox {
	return SelectionBox{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// RectPatch is a partial rect update. Nil fields are left alone.
type RectPatch struct {
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
	ZIndex *int
}

// Move patches the position only.
func Move(x, y float64) RectPatch {
	return RectPatch{X: &x, Y: &y}
}

// Reshape patches position and size.
func Reshape(x, y, width, height float64) RectPatch {
	return RectPatch{X: &x, Y: &y, Width: &width, Height: &height}
}

// Raise patches the paint rank only.
func Raise(z int) RectPatch {
	return RectPatch{ZIndex: &z}
}

// State is a JSON-friendly copy of the whole store.
type State struct {
	Elements         map[string]Element      `json:"elements"`
	Cursors          map[string]geom.Point   `json:"cursors"`
	SelectionBoxes   map[string]SelectionBox `json:"selectionBoxes"`
	SelectedElements map[string][]string     `json:"selectedElements"`
}
