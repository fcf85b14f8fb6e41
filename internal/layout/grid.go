package layout

import "context"

// GridSolver packs nodes left to right in input order, wrapping to a new
// row once a row would exceed RowWidth. Each row is as tall as its tallest
// node.
type GridSolver struct {
	Gap      float64
	RowWidth float64
	OriginX  float64
	OriginY  float64
}

// NewGridSolver returns a solver with the given gap and maximum row width.
func NewGridSolver(gap, rowWidth float64) *GridSolver {
	return &GridSolver{Gap: gap, RowWidth: rowWidth}
}

func (g *GridSolver) Solve(ctx context.Context, nodes []Node) ([]Position, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions := make([]Position, 0, len(nodes))
	x, y := g.OriginX, g.OriginY
	rowHeight := 0.0

	for _, n := range nodes {
		// First node of a row always fits, however wide.
		if x > g.OriginX && g.RowWidth > 0 && x-g.OriginX+n.Width > g.RowWidth {
			x = g.OriginX
			y += rowHeight + g.Gap
			rowHeight = 0
		}
		positions = append(positions, Position{ID: n.ID, X: x, Y: y})
		x += n.Width + g.Gap
		rowHeight = max(rowHeight, n.Height)
	}

	return positions, nil
}
