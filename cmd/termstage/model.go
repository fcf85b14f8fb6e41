package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inamate/canvas/internal/camera"
	"github.com/inamate/canvas/internal/document"
	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/layout"
	"github.com/inamate/canvas/internal/store"
)

const (
	// Stage pixels per terminal cell.
	cellWidth  = 8.0
	cellHeight = 16.0

	frameInterval = time.Second / 60
	panStep       = 4 * cellWidth
	wheelStep     = 3 * cellHeight
	layoutTimeout = 5 * time.Second

	noButton = -1
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d0d0d0")).
			Background(lipgloss.Color("#303030")).
			Padding(0, 1)
	statusErrStyle = statusStyle.Copy().Foreground(lipgloss.Color("#ff5f5f"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

type frameMsg time.Time

type model struct {
	eng    *engine.Engine
	solver layout.Solver
	link   *presenceLink

	width, height int

	pressed      int
	lastX, lastY float64
	ticking      bool

	published string
	peers     map[string]string
	status    string
	statusErr bool
}

func newModel(eng *engine.Engine, solver layout.Solver, link *presenceLink) *model {
	return &model{
		eng:     eng,
		solver:  solver,
		link:    link,
		pressed: noButton,
		peers:   make(map[string]string),
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

// stageRows leaves the last line for the status bar.
func (m *model) stageRows() int {
	return max(m.height-1, 1)
}

// toPixels maps a cell to the stage pixel at its center.
func toPixels(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * cellWidth, (float64(row) + 0.5) * cellHeight
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.eng.SetViewport(0, 0, float64(m.width)*cellWidth, float64(m.stageRows())*cellHeight)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		if cmd, quit := m.handleKey(msg); quit {
			return m, cmd
		}

	case frameMsg:
		m.ticking = false
		m.eng.Tick(time.Time(msg))

	case welcomeMsg:
		m.setStatus(fmt.Sprintf("connected as %s", shortID(msg.clientID)), false)

	case remotePresenceMsg:
		if msg.displayName != "" {
			m.peers[msg.clientID] = msg.displayName
		} else if _, ok := m.peers[msg.clientID]; !ok {
			m.peers[msg.clientID] = shortID(msg.clientID)
		}
		m.eng.ApplyPresence(msg.clientID, msg.presence)

	case remoteLeaveMsg:
		delete(m.peers, msg.clientID)
		m.eng.RemoveClient(msg.clientID)

	case disconnectedMsg:
		m.link = nil
		for id := range m.peers {
			m.eng.RemoveClient(id)
		}
		clear(m.peers)
		m.setStatus(fmt.Sprintf("disconnected: %v", msg.err), true)
	}

	m.publish()
	return m, m.nextFrame()
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	x, y := toPixels(msg.X, msg.Y)
	ev := engine.PointerEvent{
		ClientX:   x,
		ClientY:   y,
		Shift:     msg.Alt,
		Ctrl:      msg.Ctrl,
		MovementX: x - m.lastX,
		MovementY: y - m.lastY,
	}
	m.lastX, m.lastY = x, y

	switch msg.Type {
	case tea.MouseLeft, tea.MouseMiddle:
		button := engine.ButtonLeft
		if msg.Type == tea.MouseMiddle {
			button = engine.ButtonMiddle
		}
		// Some terminals repeat the press while dragging.
		if m.pressed == button {
			ev.Button = button
			m.eng.PointerMove(ev)
			return
		}
		if msg.Y >= m.stageRows() {
			return
		}
		ev.Button = button
		m.pressed = button
		m.eng.PointerDown(ev)

	case tea.MouseMotion:
		if m.pressed != noButton {
			ev.Button = m.pressed
		}
		m.eng.PointerMove(ev)

	case tea.MouseRelease:
		if m.pressed == noButton {
			return
		}
		ev.Button = m.pressed
		m.pressed = noButton
		m.eng.PointerUp(ev)

	case tea.MouseWheelUp:
		m.eng.Wheel(engine.WheelEvent{ClientX: x, ClientY: y, DeltaY: -wheelStep, Ctrl: msg.Ctrl})

	case tea.MouseWheelDown:
		m.eng.Wheel(engine.WheelEvent{ClientX: x, ClientY: y, DeltaY: wheelStep, Ctrl: msg.Ctrl})
	}
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit, true
	case "left", "h":
		m.eng.Pan(panStep, 0)
	case "right", "l":
		m.eng.Pan(-panStep, 0)
	case "up", "k":
		m.eng.Pan(0, panStep)
	case "down", "j":
		m.eng.Pan(0, -panStep)
	case "+", "=":
		m.eng.KeyDown(engine.KeyEvent{Key: "=", Ctrl: true})
	case "-":
		m.eng.KeyDown(engine.KeyEvent{Key: "-", Ctrl: true})
	case "0":
		m.eng.SetCamera(camera.New())
	case " ":
		// Terminals report no key release, so space toggles.
		if m.eng.PanMode() {
			m.eng.KeyUp(engine.KeyEvent{Key: " "})
		} else {
			m.eng.KeyDown(engine.KeyEvent{Key: " "})
		}
	case "f":
		if !m.eng.FitToContent() {
			m.setStatus("nothing to fit", false)
		}
	case "a":
		ctx, cancel := context.WithTimeout(context.Background(), layoutTimeout)
		defer cancel()
		if err := m.eng.AutoLayout(ctx, m.solver); err != nil {
			m.setStatus(err.Error(), true)
		}
	case "y":
		m.copySelection()
	case "esc":
		m.eng.CancelDrag(m.eng.ClientID())
		m.pressed = noButton
		m.eng.Store().ClearSelection(m.eng.ClientID())
	}
	return nil, false
}

// copySelection puts the selected elements on the clipboard as a stage
// document that --document can open again.
func (m *model) copySelection() {
	st := m.eng.Store()
	ids := st.Selection(m.eng.ClientID())
	if len(ids) == 0 {
		m.setStatus("nothing selected", false)
		return
	}

	doc := document.StageDocument{Elements: make([]store.ElementSpec, 0, len(ids))}
	for _, id := range ids {
		el, ok := st.Element(id)
		if !ok {
			continue
		}
		doc.Elements = append(doc.Elements, store.ElementSpec{
			Type:  el.Type,
			Rect:  el.Rect.Bounds(),
			Props: el.Props,
		})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	if err := writeClipboard(string(data)); err != nil {
		m.setStatus(fmt.Sprintf("copy selection: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("copied %d element(s)", len(doc.Elements)), false)
}

func (m *model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

// publish sends the local presence when it has changed.
func (m *model) publish() {
	if m.link == nil {
		return
	}
	p := m.eng.LocalPresence()
	data, err := json.Marshal(p)
	if err != nil || string(data) == m.published {
		return
	}
	m.published = string(data)
	m.link.Publish(p)
}

// nextFrame schedules a tick while animations run.
func (m *model) nextFrame() tea.Cmd {
	if m.ticking || !m.eng.Animating() {
		return nil
	}
	m.ticking = true
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	s := newSurface(m.width, m.stageRows(), cellWidth, cellHeight)
	paint(m.eng.Render(), s)

	return s.String() + "\n" + m.statusLine()
}

func (m *model) statusLine() string {
	cam := m.eng.Camera()
	selected := len(m.eng.Store().Selection(m.eng.ClientID()))

	left := fmt.Sprintf("%3.0f%%  %d selected  %s", cam.Zoom*100, selected, m.eng.CursorStyle())
	if m.eng.PanMode() {
		left += "  [pan]"
	}
	if len(m.peers) > 0 {
		left += fmt.Sprintf("  %d peers", len(m.peers))
	}

	style := statusStyle
	if m.statusErr {
		style = statusErrStyle
	}
	if m.status != "" {
		left += "  " + m.status
	}

	line := style.Render(left) + " " + hintStyle.Render("q quit  f fit  a layout  y copy  space pan  +/- zoom")
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}
