// Package document defines the serialized initial state of a stage.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/canvas/internal/camera"
	"github.com/inamate/canvas/internal/store"
)

var ErrInvalidDocument = errors.New("invalid stage document")

// Built-in element types. Any other type string is allowed and renders
// through whatever renderer the host registers for it.
const (
	ElementTypeRectangle = "rectangle"
	ElementTypeCircle    = "circle"
)

// StageDocument is a list of element descriptors without ids or zIndex,
// plus an optional starting camera.
type StageDocument struct {
	Name       string              `json:"name,omitempty"`
	Background string              `json:"background,omitempty"`
	Elements   []store.ElementSpec `json:"elements"`
	Camera     *camera.Camera      `json:"camera,omitempty"`
}

// Parse decodes and validates a stage document.
func Parse(data []byte) (*StageDocument, error) {
	var doc StageDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks element descriptors. Zero-size elements are allowed;
// negative sizes and missing types are not.
func (d *StageDocument) Validate() error {
	for i, el := range d.Elements {
		if el.Type == "" {
			return fmt.Errorf("%w: element %d has no type", ErrInvalidDocument, i)
		}
		if el.Rect.Width < 0 || el.Rect.Height < 0 {
			return fmt.Errorf("%w: element %d has negative size", ErrInvalidDocument, i)
		}
	}
	if d.Camera != nil && d.Camera.Zoom <= 0 {
		return fmt.Errorf("%w: camera zoom must be positive", ErrInvalidDocument)
	}
	return nil
}
