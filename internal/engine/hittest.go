package engine

import (
	"math"
	"slices"
	"strings"

	"github.com/inamate/canvas/internal/geom"
)

// HandleSize is the on-screen edge length of a resize handle in pixels.
const HandleSize = 8.0

// Handle names a resize grip by the edges it moves, e.g. "top left" or
// "right".
type Handle string

const (
	HandleTopLeft     Handle = "top left"
	HandleTopRight    Handle = "top right"
	HandleBottomLeft  Handle = "bottom left"
	HandleBottomRight Handle = "bottom right"
	HandleTop         Handle = "top"
	HandleBottom      Handle = "bottom"
	HandleLeft        Handle = "left"
	HandleRight       Handle = "right"
)

// ParseHandle normalizes a handle tag. Words may come in either order
// ("left top" is "top left"); anything naming two vertical or two
// horizontal edges is rejected.
func ParseHandle(s string) (Handle, bool) {
	var vertical, horizontal string
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 || len(fields) > 2 {
		return "", false
	}
	for _, f := range fields {
		switch f {
		case "top", "bottom":
			if vertical != "" {
				return "", false
			}
			vertical = f
		case "left", "right":
			if horizontal != "" {
				return "", false
			}
			horizontal = f
		default:
			return "", false
		}
	}
	return Handle(strings.TrimSpace(vertical + " " + horizontal)), true
}

func (h Handle) has(edge string) bool {
	return slices.Contains(strings.Fields(string(h)), edge)
}

func (h Handle) Top() bool    { return h.has("top") }
func (h Handle) Bottom() bool { return h.has("bottom") }
func (h Handle) Left() bool   { return h.has("left") }
func (h Handle) Right() bool  { return h.has("right") }

// IsCorner reports whether the handle moves two edges.
func (h Handle) IsCorner() bool {
	return (h.Top() || h.Bottom()) && (h.Left() || h.Right())
}

// Hit is what sits under the pointer. The zero value is the stage
// background.
type Hit struct {
	ElementID string `json:"elementId,omitempty"`
	Handle    Handle `json:"handle,omitempty"`
}

var corners = []Handle{HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft}

// cornerPoints returns the world positions of the corner handles in the
// order of corners.
func cornerPoints(r geom.Rect) []geom.Point {
	return []geom.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

// HitTest resolves what the local client would hit at a stage position.
func (e *Engine) HitTest(stageX, stageY float64) Hit {
	return e.hitTest(e.clientID, geom.Point{X: stageX, Y: stageY})
}

func (e *Engine) hitTest(client string, stage geom.Point) Hit {
	// A visible rubber band sits over everything.
	if box, ok := e.store.SelectionBox(client); ok && !box.Hidden {
		return Hit{}
	}

	sg := e.scene()
	world := e.cam.ScreenToWorld(stage)
	half := HandleSize / 2 / e.cam.Zoom

	for i := len(sg.Nodes) - 1; i >= 0; i-- {
		node := sg.Nodes[i]
		if !e.store.IsSelected(client, node.ID) {
			continue
		}
		for j, c := range cornerPoints(node.Bounds) {
			if math.Abs(world.X-c.X) <= half && math.Abs(world.Y-c.Y) <= half {
				return Hit{ElementID: node.ID, Handle: corners[j]}
			}
		}
	}

	if node := sg.Topmost(world); node != nil {
		return Hit{ElementID: node.ID}
	}
	return Hit{}
}
