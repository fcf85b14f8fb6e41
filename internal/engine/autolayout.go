package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/inamate/canvas/internal/anim"
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/layout"
	"github.com/inamate/canvas/internal/store"
)

// LayoutNodes returns solver input for the given elements, or the local
// selection, or everything, in that order of preference. Missing ids are
// skipped.
func (e *Engine) LayoutNodes(ids ...string) []layout.Node {
	if len(ids) == 0 {
		ids = e.store.Selection(e.clientID)
	}
	if len(ids) == 0 {
		ids = e.store.ElementIDs()
	}

	nodes := make([]layout.Node, 0, len(ids))
	for _, id := range ids {
		el, ok := e.store.Element(id)
		if !ok {
			continue
		}
		nodes = append(nodes, layout.Node{ID: id, Width: el.Rect.Width, Height: el.Rect.Height})
	}
	return nodes
}

// AutoLayout asks solver for positions and animates the elements there.
// With nothing to lay out it does nothing. Solver errors are returned and
// leave the stage untouched.
func (e *Engine) AutoLayout(ctx context.Context, solver layout.Solver, ids ...string) error {
	nodes := e.LayoutNodes(ids...)
	if len(nodes) == 0 {
		return nil
	}

	positions, err := solver.Solve(ctx, nodes)
	if err != nil {
		return fmt.Errorf("solve layout: %w", err)
	}

	e.AnimateLayout(positions)
	return nil
}

type layoutMove struct {
	id       string
	from, to geom.Point
}

// AnimateLayout moves elements to solver positions. Intermediate frames
// write whole-unit positions; the last frame lands exactly on the target.
// Sizes and zIndex are left alone. A running layout animation is replaced.
func (e *Engine) AnimateLayout(positions []layout.Position) {
	moves := make([]layoutMove, 0, len(positions))
	for _, p := range positions {
		el, ok := e.store.Element(p.ID)
		if !ok {
			continue
		}
		moves = append(moves, layoutMove{
			id:   p.ID,
			from: geom.Point{X: el.Rect.X, Y: el.Rect.Y},
			to:   geom.Point{X: p.X, Y: p.Y},
		})
	}

	e.layoutTask.Cancel()
	if len(moves) == 0 {
		return
	}

	e.logger.Debug("layout started", "elements", len(moves))
	e.layoutTask = e.ticker.Start(e.opts.LayoutDuration, e.opts.Easing, func(t float64) {
		e.store.Batch(func() {
			for _, m := range moves {
				x, y := m.to.X, m.to.Y
				if t < 1 {
					x = math.Round(anim.Lerp(m.from.X, m.to.X, t))
					y = math.Round(anim.Lerp(m.from.Y, m.to.Y, t))
				}
				e.store.UpdateRect(m.id, store.Move(x, y))
			}
		})
	}, nil)
}
