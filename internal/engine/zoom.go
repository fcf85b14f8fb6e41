package engine

import (
	"time"

	"github.com/inamate/canvas/internal/anim"
	"github.com/inamate/canvas/internal/camera"
	"github.com/inamate/canvas/internal/geom"
)

// Pan moves the camera by a stage-space delta, cancelling any camera
// animation.
func (e *Engine) Pan(dx, dy float64) {
	e.cameraTask.Cancel()
	e.cam = e.cam.Pan(dx, dy)
}

// SetCamera replaces the camera, cancelling any camera animation. Zoom is
// clamped.
func (e *Engine) SetCamera(c camera.Camera) {
	e.cameraTask.Cancel()
	c.Zoom = camera.ClampZoom(c.Zoom)
	e.cam = c
}

// Zoom animates an anchor-preserving zoom by delta around a stage-space
// anchor. It reports false, leaving any running animation alone, when the
// clamped zoom would not change.
func (e *Engine) Zoom(delta float64, anchor geom.Point) bool {
	target, ok := e.cam.ZoomTarget(delta)
	if !ok {
		return false
	}

	world := e.cam.ScreenToWorld(anchor)
	from := e.cam.Zoom
	e.animateCamera(e.opts.ZoomDuration, func(t float64) {
		e.cam = camera.AnchorAt(anchor, world, anim.Lerp(from, target, t))
	})
	return true
}

// ZoomImmediate applies an anchor-preserving zoom at once.
func (e *Engine) ZoomImmediate(delta float64, anchor geom.Point) bool {
	next, ok := e.cam.ZoomAt(delta, anchor)
	if !ok {
		return false
	}
	e.SetCamera(next)
	return true
}

// ZoomIn zooms one keyboard step in at the stage center.
func (e *Engine) ZoomIn() bool {
	return e.Zoom(KeyZoomStep, e.stageCenter())
}

// ZoomOut zooms one keyboard step out at the stage center.
func (e *Engine) ZoomOut() bool {
	return e.Zoom(1/KeyZoomStep, e.stageCenter())
}

func (e *Engine) stageCenter() geom.Point {
	return geom.Point{X: e.viewport.Width / 2, Y: e.viewport.Height / 2}
}

// FitToContent animates the camera to frame the given elements, or the
// local selection, or everything. It reports false when there is nothing
// with area to frame.
func (e *Engine) FitToContent(ids ...string) bool {
	target, ok := e.fitTarget(ids)
	if !ok {
		return false
	}

	from := e.cam
	e.animateCamera(e.opts.FitDuration, func(t float64) {
		e.cam = camera.Camera{
			X:    anim.Lerp(from.X, target.X, t),
			Y:    anim.Lerp(from.Y, target.Y, t),
			Zoom: anim.Lerp(from.Zoom, target.Zoom, t),
		}
	})
	return true
}

// FitImmediate is FitToContent without the transition.
func (e *Engine) FitImmediate(ids ...string) bool {
	target, ok := e.fitTarget(ids)
	if !ok {
		return false
	}
	e.SetCamera(target)
	return true
}

func (e *Engine) fitTarget(ids []string) (camera.Camera, bool) {
	if len(ids) == 0 {
		ids = e.store.Selection(e.clientID)
	}
	if len(ids) == 0 {
		ids = e.store.ElementIDs()
	}

	bounds, ok := e.bounds(ids)
	if !ok {
		return camera.Camera{}, false
	}
	return camera.Fit(bounds, e.viewport.Width, e.viewport.Height, e.opts.FitPadding, e.opts.FitMaxZoom)
}

// animateCamera replaces any running camera animation with a new one.
func (e *Engine) animateCamera(d time.Duration, step func(t float64)) {
	e.cameraTask.Cancel()
	e.cameraTask = e.ticker.Start(d, e.opts.Easing, step, nil)
}

// CancelAnimations stops camera and layout transitions where they are.
func (e *Engine) CancelAnimations() {
	e.cameraTask.Cancel()
	e.layoutTask.Cancel()
}
