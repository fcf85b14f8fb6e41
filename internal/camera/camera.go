// Package camera holds the pan/zoom state of a stage and the transforms
// between world space and stage (screen) space.
package camera

import (
	"github.com/inamate/canvas/internal/geom"
)

const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// Camera is the stage viewport. X and Y are the stage-space offset of the
// world origin; Zoom is a uniform scale factor.
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// New returns a camera at the origin with zoom 1.
func New() Camera {
	return Camera{Zoom: 1}
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	return max(MinZoom, min(z, MaxZoom))
}

// WorldToScreen converts a world position to stage coordinates.
func (c Camera) WorldToScreen(p geom.Point) geom.Point {
	return c.Matrix().Apply(p)
}

// ScreenToWorld converts stage coordinates to a world position.
func (c Camera) ScreenToWorld(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - c.X) / c.Zoom, Y: (p.Y - c.Y) / c.Zoom}
}

// Pan translates the camera by a stage-space delta.
func (c Camera) Pan(dx, dy float64) Camera {
	c.X += dx
	c.Y += dy
	return c
}

// AnchorAt returns the camera at zoom z that keeps world under anchor.
func AnchorAt(anchor, world geom.Point, z float64) Camera {
	return Camera{
		X:    anchor.X - world.X*z,
		Y:    anchor.Y - world.Y*z,
		Zoom: z,
	}
}

// ZoomTarget returns the clamped zoom after scaling by delta, and false when
// it equals the current zoom.
func (c Camera) ZoomTarget(delta float64) (float64, bool) {
	z := ClampZoom(c.Zoom * delta)
	return z, z != c.Zoom
}

// ZoomAt scales the camera by delta around a stage-space anchor so the world
// point under the anchor stays put. It reports false, and returns c
// unchanged, when the clamped zoom would not change.
func (c Camera) ZoomAt(delta float64, anchor geom.Point) (Camera, bool) {
	z, ok := c.ZoomTarget(delta)
	if !ok {
		return c, false
	}
	world := c.ScreenToWorld(anchor)
	return AnchorAt(anchor, world, z), true
}

// Fit returns a camera that centers bounds in a viewport of the given size,
// leaving padding on every side and never zooming past maxZoom.
// Degenerate bounds report false.
func Fit(bounds geom.Rect, viewportW, viewportH, padding, maxZoom float64) (Camera, bool) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return Camera{}, false
	}

	z := min(
		(viewportW-2*padding)/bounds.Width,
		(viewportH-2*padding)/bounds.Height,
		maxZoom,
	)
	z = max(z, MinZoom)

	cx, cy := bounds.Center()
	return Camera{
		X:    viewportW/2 - cx*z,
		Y:    viewportH/2 - cy*z,
		Zoom: z,
	}, true
}

// Matrix returns the world-to-stage transform.
func (c Camera) Matrix() geom.Matrix2D {
	return geom.View(c.X, c.Y, c.Zoom)
}

// GridSize returns the on-screen pitch of a background grid whose world
// pitch is base.
func (c Camera) GridSize(base float64) float64 {
	return base * c.Zoom
}
