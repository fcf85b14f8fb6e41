package engine

import (
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
)

// SceneGraph is the render-ready state of the stage's elements.
// It is retained between frames and rebuilt only when the store changes.
type SceneGraph struct {
	// Nodes in paint order, back to front.
	Nodes     []*SceneNode
	NodesById map[string]*SceneNode
}

// SceneNode is one element resolved for rendering.
type SceneNode struct {
	ID      string
	Type    string
	Element store.Element

	// Selected by the local client.
	Selected bool

	// Renderer output in element-local coordinates (origin at the
	// element's top-left corner, unscaled).
	Commands []DrawCommand

	// Hit testing, world space.
	Bounds geom.Rect
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesById: make(map[string]*SceneNode),
	}
}

// Topmost returns the frontmost node whose bounds contain p.
func (sg *SceneGraph) Topmost(p geom.Point) *SceneNode {
	for i := len(sg.Nodes) - 1; i >= 0; i-- {
		n := sg.Nodes[i]
		if n.Bounds.Contains(p.X, p.Y) {
			return n
		}
	}
	return nil
}
