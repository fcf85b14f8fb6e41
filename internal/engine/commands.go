package engine

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/inamate/canvas/internal/camera"
	"github.com/inamate/canvas/internal/geom"
)

// Draw operations, in the order a frame emits them.
const (
	OpGrid         = "grid"
	OpSave         = "save"
	OpElement      = "element"
	OpPath         = "path"
	OpControls     = "controls"
	OpRestore      = "restore"
	OpSelectionBox = "selectionBox"
	OpCursor       = "cursor"
)

// DrawCommand represents a single drawing operation for the host to execute.
// The host receives a list of these and executes them on a Canvas2D context
// (or any other surface).
type DrawCommand struct {
	Op          string        `json:"op"`
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	ClientID    string        `json:"clientId,omitempty"`    // Owner of a cursor or box
	Type        string        `json:"type,omitempty"`        // Element type
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha
	Rect        *geom.Rect    `json:"rect,omitempty"`        // World-space geometry
	Point       *geom.Point   `json:"point,omitempty"`       // World-space position
	Handles     []geom.Point  `json:"handles,omitempty"`     // World-space handle centers
	HandleSize  float64       `json:"handleSize,omitempty"`  // Screen pixels
	ZIndex      int           `json:"zIndex,omitempty"`
	Grid        *Grid         `json:"grid,omitempty"`
	Label       string        `json:"label,omitempty"`
}

// Matrix returns the command's transform, or identity when it has none.
func (c DrawCommand) Matrix() geom.Matrix2D {
	if len(c.Transform) != 6 {
		return geom.Identity()
	}
	return geom.Matrix2D(c.Transform)
}

// Grid describes the background pattern in stage pixels.
type Grid struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Size    float64 `json:"size"`
}

// Frame is everything besides the scene graph that goes into a frame.
type Frame struct {
	Camera   camera.Camera
	GridSize float64

	// The local client's selection box, nil unless visible.
	SelectionBox *geom.Rect

	// Other clients' cursors and visible boxes.
	Cursors     map[string]geom.Point
	RemoteBoxes map[string]geom.Rect
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph, f Frame) []DrawCommand {
	view := f.Camera.Matrix()

	commands := []DrawCommand{{
		Op: OpGrid,
		Grid: &Grid{
			OffsetX: f.Camera.X,
			OffsetY: f.Camera.Y,
			Size:    f.Camera.GridSize(f.GridSize),
		},
	}}

	if sg != nil {
		for _, node := range sg.Nodes {
			compileNode(node, view, &commands)
		}
	}

	for _, client := range slices.Sorted(maps.Keys(f.RemoteBoxes)) {
		r := f.RemoteBoxes[client]
		commands = append(commands, DrawCommand{
			Op:        OpSelectionBox,
			ClientID:  client,
			Transform: view.ToSlice(),
			Rect:      &r,
		})
	}

	if f.SelectionBox != nil {
		r := *f.SelectionBox
		commands = append(commands, DrawCommand{
			Op:        OpSelectionBox,
			Transform: view.ToSlice(),
			Rect:      &r,
		})
	}

	for _, client := range slices.Sorted(maps.Keys(f.Cursors)) {
		p := f.Cursors[client]
		commands = append(commands, DrawCommand{
			Op:        OpCursor,
			ClientID:  client,
			Transform: view.ToSlice(),
			Point:     &p,
		})
	}

	return commands
}

// compileNode emits one element wrapped in save/restore.
func compileNode(node *SceneNode, view geom.Matrix2D, commands *[]DrawCommand) {
	bounds := node.Bounds
	local := view.Multiply(geom.Translate(bounds.X, bounds.Y)).ToSlice()

	*commands = append(*commands,
		DrawCommand{Op: OpSave},
		DrawCommand{
			Op:        OpElement,
			ObjectID:  node.ID,
			Type:      node.Type,
			Transform: local,
			Rect:      &bounds,
			ZIndex:    node.Element.Rect.ZIndex,
		},
	)

	for _, cmd := range node.Commands {
		if cmd.Transform == nil {
			cmd.Transform = local
		}
		if cmd.ObjectID == "" {
			cmd.ObjectID = node.ID
		}
		*commands = append(*commands, cmd)
	}

	if node.Selected {
		*commands = append(*commands, DrawCommand{
			Op:         OpControls,
			ObjectID:   node.ID,
			Transform:  view.ToSlice(),
			Rect:       &bounds,
			Handles:    cornerPoints(bounds),
			HandleSize: HandleSize,
		})
	}

	*commands = append(*commands, DrawCommand{Op: OpRestore})
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
