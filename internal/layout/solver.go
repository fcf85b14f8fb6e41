// Package layout defines the contract with auto-layout services: a set of
// sized nodes goes in, a target position per node comes out.
package layout

import (
	"context"
	"errors"
)

var ErrNoNodes = errors.New("no nodes to lay out")

// Node is a sized box to be placed.
type Node struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a solver's placement for one node.
type Position struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Solver places nodes. Implementations treat the input as read-only.
type Solver interface {
	Solve(ctx context.Context, nodes []Node) ([]Position, error)
}

// SolverFunc adapts a plain function to Solver.
type SolverFunc func(ctx context.Context, nodes []Node) ([]Position, error)

func (f SolverFunc) Solve(ctx context.Context, nodes []Node) ([]Position, error) {
	return f(ctx, nodes)
}
