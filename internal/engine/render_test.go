package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
)

func ops(cmds []DrawCommand) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
	}
	return out
}

func TestRender_PaintOrder(t *testing.T) {
	e := newTestEngine(t)
	ids := e.LoadSampleDocument()
	circle, rect := ids[0], ids[1]
	e.Store().UpdateRect(circle, store.Raise(2))

	cmds := e.Render()
	assert.Equal(t, []string{
		OpGrid,
		OpSave, OpElement, OpPath, OpRestore,
		OpSave, OpElement, OpPath, OpRestore,
	}, ops(cmds))

	assert.Equal(t, rect, cmds[2].ObjectID, "lower zIndex paints first")
	assert.Equal(t, "blue", cmds[3].Fill)
	assert.Equal(t, circle, cmds[6].ObjectID)
	assert.Equal(t, "red", cmds[7].Fill)
	assert.Len(t, cmds[7].Path, 6, "ellipse is four curves")
}

func TestRender_Grid(t *testing.T) {
	e := newTestEngine(t)
	e.SetCamera(cameraAt(15, -7, 0.5))

	cmds := e.Render()
	require.NotEmpty(t, cmds)
	assert.Equal(t, &Grid{OffsetX: 15, OffsetY: -7, Size: 20}, cmds[0].Grid)
}

func TestRender_ElementTransform(t *testing.T) {
	e := newTestEngine(t)
	add(e, 10, 20, 30, 40)
	e.SetCamera(cameraAt(100, 50, 2))

	cmds := e.Render()
	require.Equal(t, OpElement, cmds[2].Op)
	assert.Equal(t, []float64{2, 0, 0, 2, 120, 90}, cmds[2].Transform)
	assert.Equal(t, cmds[2].Transform, cmds[3].Transform)
	assert.Equal(t, &geom.Rect{X: 10, Y: 20, Width: 30, Height: 40}, cmds[2].Rect)
}

func TestRender_UnknownTypeDrawsNothing(t *testing.T) {
	e := newTestEngine(t)
	odd := e.Store().CreateElement("hexagon", geom.Rect{Width: 10, Height: 10}, nil)
	add(e, 0, 0, 10, 10)

	cmds := e.Render()
	assert.Equal(t, []string{
		OpGrid,
		OpSave, OpElement, OpRestore,
		OpSave, OpElement, OpPath, OpRestore,
	}, ops(cmds))
	assert.Equal(t, odd, cmds[2].ObjectID)
}

func TestRender_CustomRenderer(t *testing.T) {
	reg := NewRegistry()
	reg.Register("label", RendererFunc(func(id string, el store.Element) []DrawCommand {
		return []DrawCommand{{Op: OpPath, Label: el.Props["text"].(string)}}
	}))
	e := newTestEngine(t, WithRegistry(reg))
	id := e.Store().CreateElement("label", geom.Rect{Width: 10, Height: 10}, map[string]any{"text": "hi"})

	cmds := e.Render()
	require.Len(t, cmds, 5)
	assert.Equal(t, "hi", cmds[3].Label)
	assert.Equal(t, id, cmds[3].ObjectID)
	assert.NotNil(t, cmds[3].Transform)
}

func TestRender_SelectionControlsAndBox(t *testing.T) {
	e := newTestEngine(t)
	a := add(e, 0, 0, 100, 100)
	add(e, 300, 300, 10, 10)

	down(e, 50, 50)
	up(e, 50, 50)
	cmds := e.Render()

	var controls []DrawCommand
	for _, c := range cmds {
		if c.Op == OpControls {
			controls = append(controls, c)
		}
	}
	require.Len(t, controls, 1)
	assert.Equal(t, a, controls[0].ObjectID)
	assert.Equal(t, []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}, controls[0].Handles)

	down(e, 200, 200)
	move(e, 250, 260)
	cmds = e.Render()
	last := cmds[len(cmds)-1]
	assert.Equal(t, OpSelectionBox, last.Op)
	assert.Equal(t, &geom.Rect{X: 200, Y: 200, Width: 50, Height: 60}, last.Rect)
	assert.Empty(t, last.ClientID)

	up(e, 250, 260)
	for _, c := range e.Render() {
		assert.NotEqual(t, OpSelectionBox, c.Op, "hidden boxes are not drawn")
		assert.NotEqual(t, OpControls, c.Op)
	}
}

func TestRender_RemotePresence(t *testing.T) {
	e := newTestEngine(t)
	e.ApplyPresence("client_remote", Presence{
		Cursor:       &geom.Point{X: 5, Y: 6},
		SelectionBox: &store.SelectionBox{Width: 3, Height: 3},
	})
	move(e, 1, 1)

	cmds := e.Render()
	var cursors, boxes []DrawCommand
	for _, c := range cmds {
		switch c.Op {
		case OpCursor:
			cursors = append(cursors, c)
		case OpSelectionBox:
			boxes = append(boxes, c)
		}
	}
	require.Len(t, cursors, 1, "the local cursor is the host's own")
	assert.Equal(t, "client_remote", cursors[0].ClientID)
	assert.Equal(t, &geom.Point{X: 5, Y: 6}, cursors[0].Point)
	require.Len(t, boxes, 1)
	assert.Equal(t, "client_remote", boxes[0].ClientID)
}

func TestRender_SceneGraphRetained(t *testing.T) {
	e := newTestEngine(t)
	a := add(e, 0, 0, 10, 10)

	e.Render()
	sg := e.sceneGraph
	e.Pan(10, 10)
	move(e, 3, 3)
	e.Render()
	assert.Same(t, sg, e.sceneGraph, "camera and cursor changes reuse the graph")

	e.Store().UpdateRect(a, store.Move(1, 1))
	e.Render()
	assert.NotSame(t, sg, e.sceneGraph)
}

func TestRenderJSON(t *testing.T) {
	e := newTestEngine(t)
	add(e, 0, 0, 10, 10)

	var cmds []map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.RenderJSON()), &cmds))
	require.Len(t, cmds, 5)
	assert.Equal(t, "grid", cmds[0]["op"])
	assert.Equal(t, "el_1", cmds[2]["objectId"])
}

func TestCursorStyle_Corners(t *testing.T) {
	e := newTestEngine(t)
	a := add(e, 0, 0, 100, 100)
	e.Store().SetSelection(local, []string{a})

	tests := []struct {
		x, y float64
		want string
	}{
		{0, 0, "nwse-resize"},
		{100, 100, "nwse-resize"},
		{100, 0, "nesw-resize"},
		{0, 100, "nesw-resize"},
		{50, 50, "default"},
	}
	for _, tt := range tests {
		down(e, tt.x, tt.y)
		assert.Equal(t, tt.want, e.CursorStyle(), "(%v,%v)", tt.x, tt.y)
		up(e, tt.x, tt.y)
	}
}
