package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas/internal/geom"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("el_%d", n)
	})
}

func TestCreateElement(t *testing.T) {
	s := New()
	a := s.CreateElement("circle", geom.Rect{X: 1, Y: 2, Width: 3, Height: 4}, map[string]any{"color": "red"})
	b := s.CreateElement("circle", geom.Rect{}, nil)

	require.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "el_"))

	el, ok := s.Element(a)
	require.True(t, ok)
	assert.Equal(t, "circle", el.Type)
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4, ZIndex: 1}, el.Rect)
	assert.Equal(t, "red", el.Props["color"])
	assert.Equal(t, []string{a, b}, s.ElementIDs())
	assert.Equal(t, 1, s.MaxZIndex())
}

func TestElement_PropsAreCopies(t *testing.T) {
	s := New(sequentialIDs())
	props := map[string]any{"color": "red"}
	id := s.CreateElement("circle", geom.Rect{}, props)

	props["color"] = "green"
	el, _ := s.Element(id)
	assert.Equal(t, "red", el.Props["color"], "caller's map is not retained")

	v := s.Version()
	el.Props["color"] = "blue"
	s.Elements()[0].Props["color"] = "blue"
	s.Snapshot().Elements[id].Props["color"] = "blue"

	el, _ = s.Element(id)
	assert.Equal(t, "red", el.Props["color"])
	assert.Equal(t, v, s.Version())
}

func TestLoad(t *testing.T) {
	s := New(sequentialIDs())

	var changes []Change
	s.Subscribe("", func(c Change) { changes = append(changes, c) })

	ids := s.Load([]ElementSpec{
		{Type: "circle", Rect: geom.Rect{X: 50, Y: 50, Width: 100, Height: 100}},
		{Type: "rectangle", Rect: geom.Rect{X: 400, Y: 200, Width: 100, Height: 100}},
	})

	assert.Equal(t, []string{"el_1", "el_2"}, ids)
	require.Len(t, changes, 1, "load is a single batch")
	assert.Equal(t, []string{"elements/el_1", "elements/el_2"}, changes[0].Paths)

	for _, el := range s.Elements() {
		assert.Equal(t, 1, el.Rect.ZIndex)
	}
	assert.Equal(t, "circle", s.Elements()[0].Type)
}

func TestUpdateRect(t *testing.T) {
	s := New(sequentialIDs())
	id := s.CreateElement("rectangle", geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}, nil)

	t.Run("PartialUpdate", func(t *testing.T) {
		require.True(t, s.UpdateRect(id, Move(10, 20)))
		el, _ := s.Element(id)
		assert.Equal(t, Rect{X: 10, Y: 20, Width: 100, Height: 100, ZIndex: 1}, el.Rect)

		require.True(t, s.UpdateRect(id, Raise(7)))
		el, _ = s.Element(id)
		assert.Equal(t, Rect{X: 10, Y: 20, Width: 100, Height: 100, ZIndex: 7}, el.Rect)
	})

	t.Run("MissingElementIsNoOp", func(t *testing.T) {
		v := s.Version()
		assert.False(t, s.UpdateRect("el_missing", Move(1, 1)))
		assert.Equal(t, v, s.Version())
	})

	t.Run("UnchangedValuesDoNotNotify", func(t *testing.T) {
		v := s.Version()
		assert.True(t, s.UpdateRect(id, Move(10, 20)))
		assert.Equal(t, v, s.Version())
	})

	t.Run("FieldPaths", func(t *testing.T) {
		var got []string
		unsub := s.Subscribe("elements/"+id+"/rect", func(c Change) { got = c.Paths })
		defer unsub()

		s.UpdateRect(id, Reshape(10, 25, 100, 80))
		assert.Equal(t, []string{
			"elements/" + id + "/rect/height",
			"elements/" + id + "/rect/y",
		}, got)
	})
}

func TestBatch_NotifiesAfterCompletion(t *testing.T) {
	s := New(sequentialIDs())
	a := s.CreateElement("rectangle", geom.Rect{Width: 10, Height: 10}, nil)
	b := s.CreateElement("rectangle", geom.Rect{Width: 10, Height: 10}, nil)

	calls := 0
	s.Subscribe(PathElements, func(c Change) {
		calls++
		// Observers see the whole batch applied.
		ea, _ := s.Element(a)
		eb, _ := s.Element(b)
		assert.Equal(t, 5.0, ea.Rect.X)
		assert.Equal(t, 5.0, eb.Rect.X)
		assert.Len(t, c.Paths, 4)
	})

	s.Batch(func() {
		s.UpdateRect(a, Move(5, 5))
		assert.Equal(t, 0, calls, "no notification mid-batch")
		s.Batch(func() {
			s.UpdateRect(b, Move(5, 5))
		})
		assert.Equal(t, 0, calls, "nested batch defers to the outermost")
	})
	assert.Equal(t, 1, calls)
}

func TestSubscribe_PrefixAndUnsubscribe(t *testing.T) {
	s := New(sequentialIDs())
	id := s.CreateElement("rectangle", geom.Rect{}, nil)

	var selection, cursors int
	unsubSel := s.Subscribe(PathSelection, func(Change) { selection++ })
	s.Subscribe(PathCursors, func(Change) { cursors++ })

	s.SetSelection("client_a", []string{id})
	s.SetCursor("client_a", geom.Point{X: 1, Y: 1})
	assert.Equal(t, 1, selection)
	assert.Equal(t, 1, cursors)

	unsubSel()
	s.SetSelection("client_a", nil)
	assert.Equal(t, 1, selection)

	// "selectionBoxes" shares a string prefix with "selection" but is a
	// different path segment.
	s.Subscribe(PathSelection, func(Change) { selection++ })
	s.SetSelectionBox("client_a", SelectionBox{Width: 1, Height: 1})
	assert.Equal(t, 1, selection)
}

func TestSelection(t *testing.T) {
	s := New(sequentialIDs())
	a := s.CreateElement("rectangle", geom.Rect{}, nil)
	b := s.CreateElement("rectangle", geom.Rect{}, nil)

	s.SetSelection("c", []string{b, a, b, "el_missing"})
	assert.Equal(t, []string{b, a}, s.Selection("c"))
	assert.True(t, s.IsSelected("c", a))
	assert.False(t, s.IsSelected("other", a))

	v := s.Version()
	s.SetSelection("c", []string{b, a})
	assert.Equal(t, v, s.Version(), "identical selection does not notify")

	s.ClearSelection("c")
	assert.Empty(t, s.Selection("c"))
}

func TestSelectionBox_HideKeepsGeometry(t *testing.T) {
	s := New()
	s.SetSelectionBox("c", SelectionBox{X: 1, Y: 2, Width: 3, Height: 4})
	s.HideSelectionBox("c")

	box, ok := s.SelectionBox("c")
	require.True(t, ok)
	assert.Equal(t, SelectionBox{X: 1, Y: 2, Width: 3, Height: 4, Hidden: true}, box)

	v := s.Version()
	s.HideSelectionBox("c")
	s.HideSelectionBox("nobody")
	assert.Equal(t, v, s.Version())
}

func TestDeleteElement(t *testing.T) {
	s := New(sequentialIDs())
	a := s.CreateElement("rectangle", geom.Rect{}, nil)
	b := s.CreateElement("rectangle", geom.Rect{}, nil)
	s.SetSelection("c", []string{a, b})

	require.True(t, s.DeleteElement(a))
	assert.False(t, s.Has(a))
	assert.Equal(t, []string{b}, s.Selection("c"))
	assert.Equal(t, []string{b}, s.ElementIDs())
	assert.False(t, s.DeleteElement(a))

	c := s.CreateElement("rectangle", geom.Rect{}, nil)
	assert.NotEqual(t, a, c, "ids are never reused")
}

func TestRemoveClient(t *testing.T) {
	s := New(sequentialIDs())
	id := s.CreateElement("rectangle", geom.Rect{}, nil)
	s.SetCursor("remote", geom.Point{X: 3, Y: 4})
	s.SetSelection("remote", []string{id})
	s.SetSelectionBox("remote", SelectionBox{Width: 2, Height: 2})

	calls := 0
	s.Subscribe("", func(Change) { calls++ })
	s.RemoveClient("remote")

	assert.Equal(t, 1, calls)
	_, ok := s.Cursor("remote")
	assert.False(t, ok)
	_, ok = s.SelectionBox("remote")
	assert.False(t, ok)
	assert.Empty(t, s.Selection("remote"))
}

func TestSnapshot(t *testing.T) {
	s := New(sequentialIDs())
	id := s.CreateElement("circle", geom.Rect{Width: 5, Height: 5}, nil)
	s.SetSelection("c", []string{id})
	s.SetCursor("c", geom.Point{X: 1})

	st := s.Snapshot()
	assert.Contains(t, st.Elements, id)
	assert.Equal(t, []string{id}, st.SelectedElements["c"])
	assert.Equal(t, geom.Point{X: 1}, st.Cursors["c"])

	st.SelectedElements["c"][0] = "mutated"
	assert.Equal(t, []string{id}, s.Selection("c"))
}
