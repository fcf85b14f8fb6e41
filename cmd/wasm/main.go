//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/layout"
)

var (
	eng    *engine.Engine
	solver layout.Solver = layout.NewGridSolver(40, 1200)
)

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	canvasEngine.Set("loadDocument", js.FuncOf(loadDocument))
	canvasEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	canvasEngine.Set("setViewport", js.FuncOf(setViewport))
	canvasEngine.Set("pointerDown", js.FuncOf(pointerDown))
	canvasEngine.Set("pointerMove", js.FuncOf(pointerMove))
	canvasEngine.Set("pointerUp", js.FuncOf(pointerUp))
	canvasEngine.Set("wheel", js.FuncOf(wheel))
	canvasEngine.Set("keyDown", js.FuncOf(keyDown))
	canvasEngine.Set("keyUp", js.FuncOf(keyUp))
	canvasEngine.Set("fitToContent", js.FuncOf(fitToContent))
	canvasEngine.Set("autoLayout", js.FuncOf(autoLayout))
	canvasEngine.Set("applyPresence", js.FuncOf(applyPresence))
	canvasEngine.Set("removeClient", js.FuncOf(removeClient))
	canvasEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("getState", js.FuncOf(getState))
	canvasEngine.Set("getSelection", js.FuncOf(getSelection))
	canvasEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	canvasEngine.Set("getPresence", js.FuncOf(getPresence))
	canvasEngine.Set("cursorStyle", js.FuncOf(cursorStyle))

	// Register on global scope
	js.Global().Set("canvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// decodeArg unmarshals args[0], which the host passes as a JSON string.
func decodeArg(args []js.Value, v interface{}) bool {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return false
	}
	return json.Unmarshal([]byte(args[0].String()), v) == nil
}

// stringArgs collects the string arguments as element ids.
func stringArgs(args []js.Value) []string {
	var ids []string
	for _, a := range args {
		if a.Type() == js.TypeString {
			ids = append(ids, a.String())
		}
	}
	return ids
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.LoadDocument(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	eng.LoadSampleDocument()
	return okResult()
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	eng.SetViewport(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float())
	return nil
}

// pointerDown returns {started, preventDefault}.
func pointerDown(this js.Value, args []js.Value) interface{} {
	var ev engine.PointerEvent
	if !decodeArg(args, &ev) {
		return js.ValueOf(map[string]interface{}{"started": false, "preventDefault": false})
	}
	res := eng.PointerDown(ev)
	return js.ValueOf(map[string]interface{}{
		"started":        res.Started,
		"preventDefault": res.PreventDefault,
	})
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	var ev engine.PointerEvent
	if decodeArg(args, &ev) {
		eng.PointerMove(ev)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	var ev engine.PointerEvent
	if decodeArg(args, &ev) {
		eng.PointerUp(ev)
	}
	return nil
}

// wheel returns true when the host should call preventDefault.
func wheel(this js.Value, args []js.Value) interface{} {
	var ev engine.WheelEvent
	if !decodeArg(args, &ev) {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Wheel(ev))
}

func keyDown(this js.Value, args []js.Value) interface{} {
	var ev engine.KeyEvent
	if !decodeArg(args, &ev) {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.KeyDown(ev))
}

func keyUp(this js.Value, args []js.Value) interface{} {
	var ev engine.KeyEvent
	if !decodeArg(args, &ev) {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.KeyUp(ev))
}

func fitToContent(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.FitToContent(stringArgs(args)...))
}

func autoLayout(this js.Value, args []js.Value) interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.AutoLayout(ctx, solver, stringArgs(args)...); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func applyPresence(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	var p engine.Presence
	if err := json.Unmarshal([]byte(args[1].String()), &p); err != nil {
		return errorResult(err)
	}
	eng.ApplyPresence(args[0].String(), p)
	return nil
}

func removeClient(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.RemoveClient(args[0].String())
	return nil
}

// tick advances animations and reports whether another frame is needed.
func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick(time.Now()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderJSON())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("{}")
	}
	data, _ := json.Marshal(eng.HitTest(args[0].Float(), args[1].Float()))
	return js.ValueOf(string(data))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.StateJSON())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getPresence(this js.Value, args []js.Value) interface{} {
	data, _ := json.Marshal(eng.LocalPresence())
	return js.ValueOf(string(data))
}

func cursorStyle(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CursorStyle())
}
