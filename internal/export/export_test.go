package export

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/geom"
)

func newRasterizer(t *testing.T) *Rasterizer {
	t.Helper()
	r, err := NewRasterizer()
	require.NoError(t, err)
	return r
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestRasterize_SampleDocument(t *testing.T) {
	e := engine.NewEngine()
	defer e.Close()
	e.SetViewport(0, 0, 600, 400)
	e.LoadSampleDocument()

	img := newRasterizer(t).Rasterize(e.Render(), 600, 400)

	assert.Equal(t, image.Rect(0, 0, 600, 400), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba(img.At(100, 100)), "circle center")
	assert.Equal(t, color.RGBA{B: 255, A: 255}, rgba(img.At(450, 250)), "rectangle center")
	// Outside the circle but inside its bounding box.
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, rgba(img.At(53, 53)))
}

func TestRasterize_CameraTransform(t *testing.T) {
	r := newRasterizer(t)
	view := geom.Translate(10, 20).Multiply(geom.Scale(2, 2))
	cmds := []engine.DrawCommand{
		{Op: engine.OpSave},
		{
			Op:        engine.OpPath,
			Transform: view.ToSlice(),
			Path: []engine.PathCommand{
				{"M", 0.0, 0.0}, {"L", 10.0, 0.0}, {"L", 10.0, 10.0}, {"L", 0.0, 10.0}, {"Z"},
			},
			Fill: "#00ff00",
		},
		{Op: engine.OpRestore},
	}

	img := r.Rasterize(cmds, 100, 100)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, rgba(img.At(25, 35)))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, rgba(img.At(35, 35)))
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba(ParseColor("red")))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba(ParseColor(" RED ")))
	assert.Equal(t, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 255}, rgba(ParseColor("#123")))
	assert.Equal(t, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 255}, rgba(ParseColor("#123456")))
	assert.Equal(t, color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 255}, rgba(ParseColor("nonsense")))
}

func TestMod(t *testing.T) {
	assert.Equal(t, 10.0, mod(50, 40))
	assert.Equal(t, 30.0, mod(-10, 40))
	assert.Equal(t, 0.0, mod(80, 40))
}

func postExport(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/export/png", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.ExportPNG(rec, req)
	return rec
}

func TestExportPNG(t *testing.T) {
	h := NewHandler(newRasterizer(t), engine.DefaultOptions())

	doc := map[string]any{
		"name": "Export",
		"elements": []map[string]any{
			{"type": "rectangle", "rect": map[string]any{"x": 0, "y": 0, "width": 100, "height": 100}, "props": map[string]any{"color": "blue"}},
		},
	}

	t.Run("Fit", func(t *testing.T) {
		rec := postExport(t, h, map[string]any{"document": doc, "width": 300, "height": 200, "fit": true, "name": "my stage!"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="my-stage-.png"`)

		img, err := png.Decode(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 300, 200), img.Bounds())
		// Framed at zoom min(200/100, 100/100, 2) = 1, centered.
		assert.Equal(t, color.RGBA{B: 255, A: 255}, rgba(img.At(150, 100)))
	})

	t.Run("DefaultSize", func(t *testing.T) {
		rec := postExport(t, h, map[string]any{"document": doc})
		require.Equal(t, http.StatusOK, rec.Code)
		img, err := png.Decode(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, defaultWidth, defaultHeight), img.Bounds())
	})

	t.Run("TooLarge", func(t *testing.T) {
		rec := postExport(t, h, map[string]any{"document": doc, "width": maxDimension + 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InvalidDocument", func(t *testing.T) {
		bad := map[string]any{"elements": []map[string]any{{"rect": map[string]any{"width": 1, "height": 1}}}}
		rec := postExport(t, h, map[string]any{"document": bad})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/export/png", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ExportPNG(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportPNG_Background(t *testing.T) {
	h := NewHandler(newRasterizer(t), engine.DefaultOptions())
	doc := map[string]any{"background": "black", "elements": []any{}}

	rec := postExport(t, h, map[string]any{"document": doc, "width": 50, "height": 50})
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 255}, rgba(img.At(25, 25)))
}
