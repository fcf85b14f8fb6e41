package engine

import (
	"math"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
)

// MinScreenSize is the smallest on-screen width or height a resize can
// produce, in stage pixels.
const MinScreenSize = 20.0

// DragSession is one client's in-progress gesture. It exists from pointer
// down to pointer up.
type DragSession struct {
	// Stage position of the pointer at pointer down.
	OriginX float64
	OriginY float64
	Target  DragTarget
}

// DragTarget is one of TargetResize, TargetElements or TargetStage.
type DragTarget interface {
	dragTarget()
}

// TargetResize drags one handle of one element.
type TargetResize struct {
	ElementID   string
	Handle      Handle
	InitialRect store.Rect
}

// TargetElements moves the whole selection as captured at pointer down.
type TargetElements struct {
	IDs          []string
	InitialRects map[string]store.Rect
}

// TargetStage draws a rubber-band selection box.
type TargetStage struct{}

func (TargetResize) dragTarget()   {}
func (TargetElements) dragTarget() {}
func (TargetStage) dragTarget()    {}

// Session returns a client's drag session, if any.
func (e *Engine) Session(client string) (*DragSession, bool) {
	s, ok := e.sessions[client]
	return s, ok
}

// Dragging reports whether the local client has a drag session.
func (e *Engine) Dragging() bool {
	_, ok := e.sessions[e.clientID]
	return ok
}

// CancelDrag ends a client's session without finishing it: no selection
// change, and the client's box is hidden.
func (e *Engine) CancelDrag(client string) {
	if client == "" {
		client = e.clientID
	}
	delete(e.sessions, client)
	e.store.HideSelectionBox(client)
	if client == e.clientID {
		e.panning = false
	}
}

// applyDrag moves a session forward to the given stage position.
func (e *Engine) applyDrag(client string, s *DragSession, stage geom.Point, shift bool) {
	origin := e.cam.ScreenToWorld(geom.Point{X: s.OriginX, Y: s.OriginY})
	world := e.cam.ScreenToWorld(stage)
	dx, dy := world.X-origin.X, world.Y-origin.Y

	switch t := s.Target.(type) {
	case TargetResize:
		if !e.store.Has(t.ElementID) {
			return
		}
		r := ResizeRect(t.InitialRect.Bounds(), t.Handle, dx, dy, MinScreenSize/e.cam.Zoom, shift)
		e.store.UpdateRect(t.ElementID, store.Reshape(r.X, r.Y, r.Width, r.Height))

	case TargetElements:
		e.store.Batch(func() {
			for _, id := range t.IDs {
				initial := t.InitialRects[id]
				e.store.UpdateRect(id, store.Move(initial.X+dx, initial.Y+dy))
			}
		})

	case TargetStage:
		e.store.SetSelectionBox(client, store.BoxFromRect(geom.RectFromPoints(origin, world)))
	}
}

// ResizeRect drags handle h of initial by (dx,dy) world units. A dimension
// the handle moves never ends up below minSize; with lockAspect neither
// does the other. With lockAspect the initial aspect ratio
// is kept, driven by whichever axis moved more (a side handle always
// drives its own axis). Edges opposite the handle stay fixed.
func ResizeRect(initial geom.Rect, h Handle, dx, dy, minSize float64, lockAspect bool) geom.Rect {
	w, ht := initial.Width, initial.Height

	if h.Right() {
		w = max(minSize, initial.Width+dx)
	}
	if h.Left() {
		w = max(minSize, initial.Width-dx)
	}
	if h.Bottom() {
		ht = max(minSize, initial.Height+dy)
	}
	if h.Top() {
		ht = max(minSize, initial.Height-dy)
	}

	if lockAspect && initial.Width > 0 && initial.Height > 0 {
		ratio := initial.Width / initial.Height

		horizontalDrives := math.Abs(dx) > math.Abs(dy)
		switch {
		case !h.IsCorner() && (h.Left() || h.Right()):
			horizontalDrives = true
		case !h.IsCorner():
			horizontalDrives = false
		}

		if horizontalDrives {
			ht = w / ratio
		} else {
			w = ht * ratio
		}

		// Scale both up until the smaller side meets the floor.
		if w < minSize || ht < minSize {
			scale := minSize / min(w, ht)
			w *= scale
			ht *= scale
		}
	}

	x, y := initial.X, initial.Y
	if h.Left() {
		x = initial.X + initial.Width - w
	}
	if h.Top() {
		y = initial.Y + initial.Height - ht
	}

	return geom.Rect{X: x, Y: y, Width: w, Height: ht}
}
