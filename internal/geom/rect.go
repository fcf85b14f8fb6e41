package geom

// Point is a 2D position. Whether it is in world or stage space depends on
// where it came from.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the rect spanning a and b, whichever corners they are.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  max(a.X, b.X) - min(a.X, b.X),
		Height: max(a.Y, b.Y) - min(a.Y, b.Y),
	}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Overlaps reports whether the interiors of r and o intersect.
// Rects that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width &&
		r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height &&
		r.Y+r.Height > o.Y
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Extend(r, other)
}

// Extend returns the smallest rect containing both rects, counting
// zero-area rects (lines, points) as content.
func Extend(r, other Rect) Rect {
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
