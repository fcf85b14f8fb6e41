package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inamate/canvas/internal/document"
	"github.com/inamate/canvas/internal/engine"
)

const (
	maxBodySize   = 4 << 20 // 4MB
	maxDimension  = 4096
	defaultWidth  = 1280
	defaultHeight = 720
)

type Handler struct {
	raster *Rasterizer
	opts   engine.Options
}

func NewHandler(raster *Rasterizer, opts engine.Options) *Handler {
	return &Handler{raster: raster, opts: opts}
}

type exportRequest struct {
	Document json.RawMessage `json:"document"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	// Fit frames every element instead of using the document camera.
	Fit    bool   `json:"fit"`
	Labels bool   `json:"labels"`
	Name   string `json:"name"`
}

// ExportPNG renders a posted StageDocument and streams it back as a PNG.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Width == 0 {
		req.Width = defaultWidth
	}
	if req.Height == 0 {
		req.Height = defaultHeight
	}
	if req.Width < 0 || req.Height < 0 || req.Width > maxDimension || req.Height > maxDimension {
		http.Error(w, fmt.Sprintf("width and height must be between 1 and %d", maxDimension), http.StatusBadRequest)
		return
	}

	doc, err := document.Parse(req.Document)
	if err != nil {
		if errors.Is(err, document.ErrInvalidDocument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid document", http.StatusBadRequest)
		return
	}

	e := engine.NewEngine(engine.WithOptions(h.opts))
	defer e.Close()
	e.SetViewport(0, 0, float64(req.Width), float64(req.Height))
	e.Load(doc)
	if req.Fit {
		e.FitImmediate()
	}

	raster := *h.raster
	raster.Labels = req.Labels
	if doc.Background != "" {
		raster.Background = ParseColor(doc.Background)
	}
	img := raster.Rasterize(e.Render(), req.Width, req.Height)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, sanitizeName(req.Name)))
	if err := png.Encode(w, img); err != nil {
		slog.Error("encode png", "error", err)
	}
}

func sanitizeName(name string) string {
	if name == "" {
		return "stage"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
