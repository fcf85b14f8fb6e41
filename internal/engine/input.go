package engine

import (
	"github.com/inamate/canvas/internal/store"
)

// Mouse buttons, numbered like DOM MouseEvent.button.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)

// Zoom steps.
const (
	KeyZoomStep   = 1.2
	WheelZoomStep = 1.1
)

// PointerEvent is a pointer down, move or up in client coordinates.
type PointerEvent struct {
	ClientX   float64 `json:"clientX"`
	ClientY   float64 `json:"clientY"`
	Button    int     `json:"button"`
	Shift     bool    `json:"shift"`
	Ctrl      bool    `json:"ctrl"`
	Meta      bool    `json:"meta"`
	MovementX float64 `json:"movementX"`
	MovementY float64 `json:"movementY"`

	// Target is what the host's own hit testing found under the pointer.
	// When nil the engine hit-tests the scene itself.
	Target *Hit `json:"target,omitempty"`

	// ClientID defaults to the local client.
	ClientID string `json:"clientId,omitempty"`
}

// WheelEvent is a wheel or trackpad scroll.
type WheelEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	DeltaX  float64 `json:"deltaX"`
	DeltaY  float64 `json:"deltaY"`
	Ctrl    bool    `json:"ctrl"`
	Meta    bool    `json:"meta"`
}

// KeyEvent is a key press or release. Key uses DOM KeyboardEvent.key
// values (" " for space).
type KeyEvent struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
	Meta bool   `json:"meta"`
}

func (e *Engine) clientOf(ev PointerEvent) string {
	if ev.ClientID != "" {
		return ev.ClientID
	}
	return e.clientID
}

// PointerResult is what a press did. While Started, the host should listen
// for moves and the release anywhere on the page until PointerUp.
// PreventDefault asks the host to suppress the browser's own handling of
// the press (middle-button autoscroll, text selection while panning).
type PointerResult struct {
	Started        bool `json:"started"`
	PreventDefault bool `json:"preventDefault"`
}

// PointerDown classifies a press and starts a drag session. A press on an
// element that no longer exists starts nothing, not even a pan.
func (e *Engine) PointerDown(ev PointerEvent) PointerResult {
	client := e.clientOf(ev)
	local := client == e.clientID
	stage := e.toStage(ev.ClientX, ev.ClientY)
	if local {
		e.pointer = stage
	}
	pan := local && (ev.Button == ButtonMiddle || (ev.Button == ButtonLeft && e.panMode))

	hit := ev.Target
	if hit == nil {
		h := e.hitTest(client, stage)
		hit = &h
	}

	var target DragTarget
	switch {
	case hit.Handle != "" && hit.ElementID != "":
		el, ok := e.store.Element(hit.ElementID)
		if !ok {
			return PointerResult{}
		}
		target = TargetResize{ElementID: el.ID, Handle: hit.Handle, InitialRect: el.Rect}

	case hit.ElementID != "":
		if !e.store.Has(hit.ElementID) {
			return PointerResult{}
		}
		target = e.pressElement(client, hit.ElementID)

	default:
		e.store.ClearSelection(client)
		target = TargetStage{}
	}

	switch target.(type) {
	case TargetResize, TargetElements:
		e.layoutTask.Cancel()
	}

	e.sessions[client] = &DragSession{OriginX: stage.X, OriginY: stage.Y, Target: target}
	if pan {
		e.panning = true
	}
	return PointerResult{Started: true, PreventDefault: pan}
}

// pressElement selects and raises an element that was not selected yet, then
// snapshots the whole selection for a group drag.
func (e *Engine) pressElement(client, id string) TargetElements {
	var t TargetElements
	e.store.Batch(func() {
		if !e.store.IsSelected(client, id) {
			e.store.SetSelection(client, []string{id})
			e.store.UpdateRect(id, store.Raise(e.store.MaxZIndex()+1))
		}

		t.IDs = e.store.Selection(client)
		t.InitialRects = make(map[string]store.Rect, len(t.IDs))
		for _, sel := range t.IDs {
			if el, ok := e.store.Element(sel); ok {
				t.InitialRects[sel] = el.Rect
			}
		}
	})
	return t
}

// PointerMove tracks the pointer and advances the client's drag session.
func (e *Engine) PointerMove(ev PointerEvent) {
	client := e.clientOf(ev)
	stage := e.toStage(ev.ClientX, ev.ClientY)
	local := client == e.clientID
	if local {
		e.pointer = stage
	}

	s, ok := e.sessions[client]
	if local && e.panning && ok {
		e.Pan(ev.MovementX, ev.MovementY)
		return
	}

	e.store.SetCursor(client, e.cam.ScreenToWorld(stage))

	if ok {
		e.applyDrag(client, s, stage, ev.Shift)
	}
}

// PointerUp finishes the client's drag session. A rubber-band drag selects
// every element overlapping the box and hides it.
func (e *Engine) PointerUp(ev PointerEvent) {
	client := e.clientOf(ev)
	if client == e.clientID && (ev.Button == ButtonMiddle || e.panning) {
		e.panning = false
	}

	s, ok := e.sessions[client]
	delete(e.sessions, client)
	if !ok {
		return
	}

	if _, stage := s.Target.(TargetStage); stage {
		e.finishSelection(client)
	}
}

// Wheel zooms at the pointer with ctrl or meta held, and pans otherwise. It
// always consumes the event.
func (e *Engine) Wheel(ev WheelEvent) bool {
	stage := e.toStage(ev.ClientX, ev.ClientY)
	e.pointer = stage

	if ev.Ctrl || ev.Meta {
		delta := WheelZoomStep
		if ev.DeltaY > 0 {
			delta = 1 / WheelZoomStep
		}
		if e.opts.SmoothWheelZoom {
			e.Zoom(delta, stage)
		} else {
			e.ZoomImmediate(delta, stage)
		}
		return true
	}

	e.Pan(-ev.DeltaX, -ev.DeltaY)
	return true
}

// KeyDown handles pan mode and zoom shortcuts. It reports whether the key
// was consumed.
func (e *Engine) KeyDown(ev KeyEvent) bool {
	if ev.Key == " " {
		if e.panMode || e.Dragging() {
			return false
		}
		e.panMode = true
		return true
	}

	if ev.Ctrl || ev.Meta {
		switch ev.Key {
		case "=", "+":
			e.ZoomIn()
			return true
		case "-":
			e.ZoomOut()
			return true
		}
	}
	return false
}

// KeyUp leaves pan mode on space release.
func (e *Engine) KeyUp(ev KeyEvent) bool {
	if ev.Key == " " {
		e.panMode = false
		return true
	}
	return false
}

// CursorStyle returns the CSS cursor for the stage.
func (e *Engine) CursorStyle() string {
	if s, ok := e.sessions[e.clientID]; ok {
		if t, ok := s.Target.(TargetResize); ok {
			switch t.Handle {
			case HandleTopLeft, HandleBottomRight:
				return "nwse-resize"
			case HandleTopRight, HandleBottomLeft:
				return "nesw-resize"
			case HandleTop, HandleBottom:
				return "ns-resize"
			case HandleLeft, HandleRight:
				return "ew-resize"
			}
		}
	}
	if e.panning {
		return "grabbing"
	}
	if e.panMode {
		return "grab"
	}
	return "default"
}
