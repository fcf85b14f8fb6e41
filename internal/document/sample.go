package document

import (
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/store"
)

// NewSampleDocument returns the demo stage: a red circle and a blue
// rectangle.
func NewSampleDocument() *StageDocument {
	return &StageDocument{
		Name:       "Playground",
		Background: "#f8f8f8",
		Elements: []store.ElementSpec{
			{
				Type:  ElementTypeCircle,
				Rect:  geom.Rect{X: 50, Y: 50, Width: 100, Height: 100},
				Props: map[string]any{"color": "red"},
			},
			{
				Type:  ElementTypeRectangle,
				Rect:  geom.Rect{X: 400, Y: 200, Width: 100, Height: 100},
				Props: map[string]any{"color": "blue"},
			},
		},
	}
}
