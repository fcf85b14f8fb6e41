package engine

import (
	"log/slog"
	"slices"

	"github.com/inamate/canvas/internal/store"
)

// BuildSceneGraph orders the store's elements for painting and runs each
// through its renderer. Paint order is zIndex ascending; equal ranks keep
// creation order, so a later element paints over an earlier one.
func BuildSceneGraph(s *store.Store, reg *Registry, clientID string, logger *slog.Logger) *SceneGraph {
	sg := NewSceneGraph()

	elements := s.Elements()
	slices.SortStableFunc(elements, func(a, b store.Element) int {
		return a.Rect.ZIndex - b.Rect.ZIndex
	})

	for _, el := range elements {
		node := &SceneNode{
			ID:       el.ID,
			Type:     el.Type,
			Element:  el,
			Selected: s.IsSelected(clientID, el.ID),
			Bounds:   el.Rect.Bounds(),
		}
		if r, ok := reg.Lookup(el.Type); ok {
			node.Commands = r.Render(el.ID, el)
		} else {
			logger.Debug("no renderer for element type", "type", el.Type, "element", el.ID)
		}
		sg.Nodes = append(sg.Nodes, node)
		sg.NodesById[el.ID] = node
	}

	return sg
}
