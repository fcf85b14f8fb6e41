package engine

import (
	"github.com/inamate/canvas/internal/document"
	"github.com/inamate/canvas/internal/store"
)

const defaultFill = "#888888"

// Renderer produces the visual output of one element. Commands use
// element-local coordinates: (0,0) is the element's top-left corner and
// (width,height) its bottom-right, in world units.
type Renderer interface {
	Render(id string, el store.Element) []DrawCommand
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(id string, el store.Element) []DrawCommand

func (f RendererFunc) Render(id string, el store.Element) []DrawCommand {
	return f(id, el)
}

// Registry maps element types to renderers. Types with no renderer draw
// nothing.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// DefaultRegistry returns a registry with the built-in rectangle and circle
// renderers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(document.ElementTypeRectangle, RendererFunc(renderRectangle))
	r.Register(document.ElementTypeCircle, RendererFunc(renderCircle))
	return r
}

// Register binds a renderer to an element type, replacing any previous one.
func (r *Registry) Register(elementType string, renderer Renderer) {
	r.renderers[elementType] = renderer
}

// Lookup returns the renderer for an element type.
func (r *Registry) Lookup(elementType string) (Renderer, bool) {
	if r == nil {
		return nil, false
	}
	renderer, ok := r.renderers[elementType]
	return renderer, ok
}

func fillColor(el store.Element) string {
	if c, ok := el.Props["color"].(string); ok && c != "" {
		return c
	}
	return defaultFill
}

func renderRectangle(id string, el store.Element) []DrawCommand {
	return []DrawCommand{{
		Op:       OpPath,
		ObjectID: id,
		Path:     rectPath(el.Rect.Width, el.Rect.Height),
		Fill:     fillColor(el),
	}}
}

func renderCircle(id string, el store.Element) []DrawCommand {
	return []DrawCommand{{
		Op:       OpPath,
		ObjectID: id,
		Path:     ellipsePath(el.Rect.Width, el.Rect.Height),
		Fill:     fillColor(el),
	}}
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

// ellipsePath approximates the ellipse inscribed in (0,0,w,h) with four
// cubic Bezier curves.
func ellipsePath(w, h float64) []PathCommand {
	rx, ry := w/2, h/2
	cx, cy := rx, ry

	// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
	k := 0.5522847498
	kx := rx * k
	ky := ry * k

	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}
