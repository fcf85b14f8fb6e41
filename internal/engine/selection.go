package engine

// finishSelection replaces the client's selection with every element that
// overlaps its visible box, then hides the box. Touching edges do not
// count.
func (e *Engine) finishSelection(client string) {
	box, ok := e.store.SelectionBox(client)
	if !ok || box.Hidden {
		return
	}

	area := box.Rect()
	var selected []string
	for _, el := range e.store.Elements() {
		if el.Rect.Bounds().Overlaps(area) {
			selected = append(selected, el.ID)
		}
	}

	e.store.Batch(func() {
		e.store.SetSelection(client, selected)
		e.store.HideSelectionBox(client)
	})
}
