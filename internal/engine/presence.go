package engine

import (
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
)

// Presence is what one client shows the others: where its pointer is, what
// it has selected and its rubber band.
type Presence struct {
	Cursor       *geom.Point         `json:"cursor,omitempty"`
	Selection    []string            `json:"selection"`
	SelectionBox *store.SelectionBox `json:"selectionBox,omitempty"`
}

// LocalPresence returns the local client's presence for publishing.
func (e *Engine) LocalPresence() Presence {
	p := Presence{Selection: e.store.Selection(e.clientID)}
	if p.Selection == nil {
		p.Selection = []string{}
	}
	if c, ok := e.store.Cursor(e.clientID); ok {
		p.Cursor = &c
	}
	if box, ok := e.store.SelectionBox(e.clientID); ok {
		p.SelectionBox = &box
	}
	return p
}

// ApplyPresence writes a remote client's presence in one batch. Selected
// ids unknown to this stage are dropped.
func (e *Engine) ApplyPresence(client string, p Presence) {
	if client == "" || client == e.clientID {
		return
	}
	e.store.Batch(func() {
		if p.Cursor != nil {
			e.store.SetCursor(client, *p.Cursor)
		}
		e.store.SetSelection(client, p.Selection)
		if p.SelectionBox != nil {
			e.store.SetSelectionBox(client, *p.SelectionBox)
		}
	})
}

// RemoveClient drops a departed client's cursor, selection, box and any
// session it left open.
func (e *Engine) RemoveClient(client string) {
	if client == e.clientID {
		return
	}
	delete(e.sessions, client)
	e.store.RemoveClient(client)
}
