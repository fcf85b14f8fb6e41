// Package store is the single source of truth for a stage: elements,
// per-client cursors, selections and selection boxes.
//
// Every write is recorded under a key path such as "elements/<id>/rect/x"
// or "selection/<client>". Subscribers registered for a path prefix are
// notified once per outermost Batch, after it completes. A Store is not
// safe for concurrent use; drive it from a single goroutine.
package store

import (
	"maps"
	"slices"
	"strings"

	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/typeid"
)

const (
	PathElements       = "elements"
	PathCursors        = "cursors"
	PathSelection      = "selection"
	PathSelectionBoxes = "selectionBoxes"
)

// Change describes the paths written by one completed batch.
type Change struct {
	Version uint64
	Paths   []string
}

type subscription struct {
	id     int
	prefix string
	fn     func(Change)
}

type Store struct {
	elements   map[string]*Element
	order      []string
	cursors    map[string]geom.Point
	selections map[string][]string
	boxes      map[string]SelectionBox

	newID func() string

	version uint64
	depth   int
	pending map[string]struct{}

	subs   []subscription
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the element id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		elements:   make(map[string]*Element),
		cursors:    make(map[string]geom.Point),
		selections: make(map[string][]string),
		boxes:      make(map[string]SelectionBox),
		newID:      typeid.NewElementID,
		pending:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Observation ---

// Batch runs fn and defers notifications until the outermost batch ends.
func (s *Store) Batch(fn func()) {
	s.depth++
	defer func() {
		s.depth--
		if s.depth == 0 {
			s.flush()
		}
	}()
	fn()
}

// Subscribe registers fn for changes under prefix ("" matches everything).
// The returned func removes the subscription.
func (s *Store) Subscribe(prefix string, fn func(Change)) func() {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, prefix: prefix, fn: fn})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	}
}

// Version increments once per completed batch that wrote something.
func (s *Store) Version() uint64 {
	return s.version
}

func (s *Store) touch(paths ...string) {
	for _, p := range paths {
		s.pending[p] = struct{}{}
	}
	if s.depth == 0 {
		s.flush()
	}
}

func (s *Store) flush() {
	if len(s.pending) == 0 {
		return
	}
	paths := slices.Sorted(maps.Keys(s.pending))
	s.pending = make(map[string]struct{})
	s.version++

	subs := slices.Clone(s.subs)
	for _, sub := range subs {
		matched := matchPaths(sub.prefix, paths)
		if len(matched) == 0 {
			continue
		}
		sub.fn(Change{Version: s.version, Paths: matched})
	}
}

func matchPaths(prefix string, paths []string) []string {
	if prefix == "" {
		return paths
	}
	var out []string
	for _, p := range paths {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			out = append(out, p)
		}
	}
	return out
}

func elementPath(id string, fields ...string) string {
	return strings.Join(append([]string{PathElements, id}, fields...), "/")
}

// --- Elements ---

// CreateElement inserts a new element with zIndex 1 and returns its id.
func (s *Store) CreateElement(elementType string, r geom.Rect, props map[string]any) string {
	id := s.newID()
	s.elements[id] = &Element{
		ID:   id,
		Type: elementType,
		Rect: Rect{
			X:      r.X,
			Y:      r.Y,
			Width:  r.Width,
			Height: r.Height,
			ZIndex: 1,
		},
		Props: maps.Clone(props),
	}
	s.order = append(s.order, id)
	s.touch(elementPath(id))
	return id
}

// Load inserts specs in order as a single batch and returns the new ids.
func (s *Store) Load(specs []ElementSpec) []string {
	ids := make([]string, 0, len(specs))
	s.Batch(func() {
		for _, spec := range specs {
			ids = append(ids, s.CreateElement(spec.Type, spec.Rect, spec.Props))
		}
	})
	return ids
}

// Element returns a copy of the element with the given id. Props is cloned
// one level deep; writes to it do not reach the store.
func (s *Store) Element(id string) (Element, bool) {
	el, ok := s.elements[id]
	if !ok {
		return Element{}, false
	}
	return el.clone(), true
}

// Has reports whether id names a live element.
func (s *Store) Has(id string) bool {
	_, ok := s.elements[id]
	return ok
}

// Elements returns copies of all elements in creation order.
func (s *Store) Elements() []Element {
	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elements[id].clone())
	}
	return out
}

// ElementIDs returns all element ids in creation order.
func (s *Store) ElementIDs() []string {
	return slices.Clone(s.order)
}

// Len returns the number of elements.
func (s *Store) Len() int {
	return len(s.order)
}

// MaxZIndex returns the highest zIndex, or 0 for an empty stage.
func (s *Store) MaxZIndex() int {
	z := 0
	for _, el := range s.elements {
		z = max(z, el.Rect.ZIndex)
	}
	return z
}

// UpdateRect applies a partial rect update. Updates to missing elements are
// ignored and report false.
func (s *Store) UpdateRect(id string, p RectPatch) bool {
	el, ok := s.elements[id]
	if !ok {
		return false
	}

	var changed []string
	setFloat := func(field string, dst *float64, v *float64) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, elementPath(id, "rect", field))
		}
	}
	setFloat("x", &el.Rect.X, p.X)
	setFloat("y", &el.Rect.Y, p.Y)
	setFloat("width", &el.Rect.Width, p.Width)
	setFloat("height", &el.Rect.Height, p.Height)
	if p.ZIndex != nil && el.Rect.ZIndex != *p.ZIndex {
		el.Rect.ZIndex = *p.ZIndex
		changed = append(changed, elementPath(id, "rect", "zIndex"))
	}

	if len(changed) > 0 {
		s.touch(changed...)
	}
	return true
}

// DeleteElement removes an element and drops it from every selection.
func (s *Store) DeleteElement(id string) bool {
	if _, ok := s.elements[id]; !ok {
		return false
	}
	s.Batch(func() {
		delete(s.elements, id)
		s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
		s.touch(elementPath(id))
		for client, sel := range s.selections {
			if slices.Contains(sel, id) {
				s.selections[client] = slices.DeleteFunc(slices.Clone(sel), func(v string) bool { return v == id })
				s.touch(PathSelection + "/" + client)
			}
		}
	})
	return true
}

// --- Cursors ---

// SetCursor records a client's world-space pointer position.
func (s *Store) SetCursor(client string, p geom.Point) {
	if cur, ok := s.cursors[client]; ok && cur == p {
		return
	}
	s.cursors[client] = p
	s.touch(PathCursors + "/" + client)
}

// Cursor returns a client's last known pointer position.
func (s *Store) Cursor(client string) (geom.Point, bool) {
	p, ok := s.cursors[client]
	return p, ok
}

// Cursors returns a copy of every client's cursor.
func (s *Store) Cursors() map[string]geom.Point {
	return maps.Clone(s.cursors)
}

// --- Selections ---

// SetSelection replaces a client's selection. Duplicates and ids that do
// not name an element are dropped; order is preserved.
func (s *Store) SetSelection(client string, ids []string) {
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.Has(id) && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	if prev, ok := s.selections[client]; ok && slices.Equal(prev, next) {
		return
	}
	s.selections[client] = next
	s.touch(PathSelection + "/" + client)
}

// ClearSelection empties a client's selection.
func (s *Store) ClearSelection(client string) {
	s.SetSelection(client, nil)
}

// Selection returns a copy of a client's selection in selection order.
func (s *Store) Selection(client string) []string {
	return slices.Clone(s.selections[client])
}

// IsSelected reports whether id is in the client's selection.
func (s *Store) IsSelected(client, id string) bool {
	return slices.Contains(s.selections[client], id)
}

// --- Selection boxes ---

// SetSelectionBox writes a client's rubber-band box.
func (s *Store) SetSelectionBox(client string, box SelectionBox) {
	if prev, ok := s.boxes[client]; ok && prev == box {
		return
	}
	s.boxes[client] = box
	s.touch(PathSelectionBoxes + "/" + client)
}

// SelectionBox returns a client's box, hidden or not.
func (s *Store) SelectionBox(client string) (SelectionBox, bool) {
	box, ok := s.boxes[client]
	return box, ok
}

// HideSelectionBox marks a client's box inert. The geometry is kept.
func (s *Store) HideSelectionBox(client string) {
	box, ok := s.boxes[client]
	if !ok || box.Hidden {
		return
	}
	box.Hidden = true
	s.boxes[client] = box
	s.touch(PathSelectionBoxes + "/" + client + "/hidden")
}

// RemoveClient drops everything a departed client owns.
func (s *Store) RemoveClient(client string) {
	s.Batch(func() {
		if _, ok := s.cursors[client]; ok {
			delete(s.cursors, client)
			s.touch(PathCursors + "/" + client)
		}
		if _, ok := s.selections[client]; ok {
			delete(s.selections, client)
			s.touch(PathSelection + "/" + client)
		}
		if _, ok := s.boxes[client]; ok {
			delete(s.boxes, client)
			s.touch(PathSelectionBoxes + "/" + client)
		}
	})
}

// Snapshot copies the whole store.
func (s *Store) Snapshot() State {
	st := State{
		Elements:         make(map[string]Element, len(s.elements)),
		Cursors:          maps.Clone(s.cursors),
		SelectionBoxes:   maps.Clone(s.boxes),
		SelectedElements: make(map[string][]string, len(s.selections)),
	}
	for id, el := range s.elements {
		st.Elements[id] = el.clone()
	}
	for client, sel := range s.selections {
		st.SelectedElements[client] = slices.Clone(sel)
	}
	return st
}
