// Package engine is a headless infinite-canvas stage: it turns pointer,
// wheel and keyboard input into camera moves, element drags and resizes,
// rubber-band selection and animated camera and layout transitions, and
// compiles the result into draw commands for a host to paint.
//
// An Engine is driven from a single goroutine. Input handlers and Tick
// mutate state synchronously; nothing runs in the background.
package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/canvas/internal/anim"
	"github.com/inamate/canvas/internal/camera"
	"github.com/inamate/canvas/internal/document"
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
	"github.com/inamate/canvas/internal/typeid"
)

// Options tunes the engine's transitions.
type Options struct {
	ZoomDuration   time.Duration
	FitDuration    time.Duration
	LayoutDuration time.Duration
	Easing         anim.Easing

	// Margin left around content by FitToContent, in stage pixels.
	FitPadding float64
	// FitToContent never zooms in past this.
	FitMaxZoom float64

	// Animate ctrl+wheel zoom. When false the wheel zooms immediately.
	SmoothWheelZoom bool

	// World-space pitch of the background grid.
	GridSize float64
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		ZoomDuration:    200 * time.Millisecond,
		FitDuration:     400 * time.Millisecond,
		LayoutDuration:  500 * time.Millisecond,
		Easing:          anim.EasingPower2Out,
		FitPadding:      50,
		FitMaxZoom:      2,
		SmoothWheelZoom: true,
		GridSize:        40,
	}
}

// Option configures an Engine.
type Option func(*Engine)

func WithOptions(opts Options) Option {
	return func(e *Engine) { e.opts = opts }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClientID sets the id of the local client. Defaults to a fresh
// client typeid.
func WithClientID(id string) Option {
	return func(e *Engine) { e.clientID = id }
}

func WithRegistry(reg *Registry) Option {
	return func(e *Engine) { e.registry = reg }
}

func WithStore(s *store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// Engine owns one stage: its store, camera and in-flight interactions.
// Every Engine is independent; nothing is shared between stages.
type Engine struct {
	store    *store.Store
	registry *Registry
	opts     Options
	logger   *slog.Logger
	clientID string

	cam      camera.Camera
	viewport geom.Rect // stage container in client coordinates

	ticker     *anim.Ticker
	cameraTask *anim.Task
	layoutTask *anim.Task

	sessions map[string]*DragSession
	panMode  bool // space held
	panning  bool
	pointer  geom.Point // last stage position of the local pointer

	// Retained scene graph
	sceneGraph *SceneGraph
	// Dirty flag - scene graph needs rebuild
	dirty  bool
	unsubs []func()
}

// NewEngine creates a new engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		opts:     DefaultOptions(),
		logger:   slog.Default(),
		cam:      camera.New(),
		ticker:   anim.NewTicker(),
		sessions: make(map[string]*DragSession),
		dirty:    true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = store.New()
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.clientID == "" {
		e.clientID = typeid.NewClientID()
	}

	// Cursors and boxes are read fresh each frame; only elements and
	// selections feed the scene graph.
	markDirty := func(store.Change) { e.dirty = true }
	e.unsubs = append(e.unsubs,
		e.store.Subscribe(store.PathElements, markDirty),
		e.store.Subscribe(store.PathSelection, markDirty),
	)
	return e
}

// Close detaches the engine from its store.
func (e *Engine) Close() {
	e.CancelAnimations()
	for _, unsub := range e.unsubs {
		unsub()
	}
	e.unsubs = nil
}

// --- Commands (host → engine) ---

// LoadDocument adds a document's elements, in order, with fresh ids and
// zIndex 1, and adopts its camera if it has one.
func (e *Engine) LoadDocument(jsonData string) error {
	doc, err := document.Parse([]byte(jsonData))
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	e.Load(doc)
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument() []string {
	return e.Load(document.NewSampleDocument())
}

// Load adds an already parsed document and returns the new element ids.
func (e *Engine) Load(doc *document.StageDocument) []string {
	ids := e.store.Load(doc.Elements)
	if doc.Camera != nil {
		e.SetCamera(*doc.Camera)
	}
	e.logger.Debug("document loaded", "elements", len(ids))
	return ids
}

// SetViewport records the stage container's bounding box in client
// coordinates.
func (e *Engine) SetViewport(left, top, width, height float64) {
	e.viewport = geom.Rect{X: left, Y: top, Width: width, Height: height}
}

// Viewport returns the stage container's bounding box.
func (e *Engine) Viewport() geom.Rect {
	return e.viewport
}

// toStage converts client coordinates to stage-local coordinates.
func (e *Engine) toStage(clientX, clientY float64) geom.Point {
	return geom.Point{X: clientX - e.viewport.X, Y: clientY - e.viewport.Y}
}

// Tick advances running animations to now. It reports whether another
// frame is needed.
func (e *Engine) Tick(now time.Time) bool {
	e.ticker.Tick(now)
	return e.ticker.Active()
}

// --- Queries (host ← engine) ---

// Store exposes the stage's state container.
func (e *Engine) Store() *store.Store {
	return e.store
}

// ClientID returns the local client's id.
func (e *Engine) ClientID() string {
	return e.clientID
}

// Camera returns the current camera.
func (e *Engine) Camera() camera.Camera {
	return e.cam
}

// Animating reports whether a camera or layout transition is running.
func (e *Engine) Animating() bool {
	return e.ticker.Active()
}

// Panning reports whether pointer motion currently pans the camera.
func (e *Engine) Panning() bool {
	return e.panning
}

// PanMode reports whether pan mode (space held) is on.
func (e *Engine) PanMode() bool {
	return e.panMode
}

// scene returns the scene graph, rebuilding it if the store changed.
func (e *Engine) scene() *SceneGraph {
	if e.dirty || e.sceneGraph == nil {
		e.sceneGraph = BuildSceneGraph(e.store, e.registry, e.clientID, e.logger)
		e.dirty = false
	}
	return e.sceneGraph
}

// Render compiles the current frame.
func (e *Engine) Render() []DrawCommand {
	f := Frame{
		Camera:      e.cam,
		GridSize:    e.opts.GridSize,
		Cursors:     make(map[string]geom.Point),
		RemoteBoxes: make(map[string]geom.Rect),
	}

	st := e.store.Snapshot()
	for client, box := range st.SelectionBoxes {
		if box.Hidden {
			continue
		}
		r := box.Rect()
		if client == e.clientID {
			f.SelectionBox = &r
		} else {
			f.RemoteBoxes[client] = r
		}
	}
	for client, p := range st.Cursors {
		if client != e.clientID {
			f.Cursors[client] = p
		}
	}

	return CompileDrawCommands(e.scene(), f)
}

// RenderJSON compiles the current frame as JSON.
func (e *Engine) RenderJSON() string {
	result, err := DrawCommandsToJSON(e.Render())
	if err != nil {
		e.logger.Error("encode draw commands", "error", err)
	}
	return result
}

// StateJSON returns the store and camera as JSON (for debugging/sync).
func (e *Engine) StateJSON() string {
	data, err := json.Marshal(struct {
		store.State
		Camera   camera.Camera `json:"camera"`
		ClientID string        `json:"clientId"`
	}{e.store.Snapshot(), e.cam, e.clientID})
	if err != nil {
		return "{}"
	}
	return string(data)
}

// GetSelection returns the local selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.store.Selection(e.clientID))
	return string(data)
}

// GetSelectionBounds returns the union of the local selection's rects as
// JSON.
func (e *Engine) GetSelectionBounds() string {
	bounds, _ := e.bounds(e.store.Selection(e.clientID))
	data, _ := json.Marshal(bounds)
	return string(data)
}

// bounds returns the union of the rects of the given elements, counting
// zero-area rects. Missing ids are skipped.
func (e *Engine) bounds(ids []string) (geom.Rect, bool) {
	var out geom.Rect
	found := false
	for _, id := range ids {
		el, ok := e.store.Element(id)
		if !ok {
			continue
		}
		if !found {
			out = el.Rect.Bounds()
			found = true
			continue
		}
		out = geom.Extend(out, el.Rect.Bounds())
	}
	return out, found
}
