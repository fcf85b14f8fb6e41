package geom

import "math"

// Matrix2D is an affine transform in Canvas2D setTransform order
// [a, b, c, d, e, f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix2D [6]float64

func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// View is the world-to-stage transform of a camera whose offset is (x, y)
// and whose zoom is z: stage = world*z + offset.
func View(x, y, z float64) Matrix2D {
	return Matrix2D{z, 0, 0, z, x, y}
}

// Multiply returns m∘o, the transform that applies o and then m.
func (m Matrix2D) Multiply(o Matrix2D) Matrix2D {
	a, b, c, d, e, f := m[0], m[1], m[2], m[3], m[4], m[5]
	return Matrix2D{
		a*o[0] + c*o[1],
		b*o[0] + d*o[1],
		a*o[2] + c*o[3],
		b*o[2] + d*o[3],
		a*o[4] + c*o[5] + e,
		b*o[4] + d*o[5] + f,
	}
}

func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Apply is TransformPoint for a Point.
func (m Matrix2D) Apply(p Point) Point {
	x, y := m.TransformPoint(p.X, p.Y)
	return Point{X: x, Y: y}
}

// TransformRect returns the axis-aligned bounds of r's four corners under m.
func (m Matrix2D) TransformRect(r Rect) Rect {
	out := RectFromPoints(m.Apply(Point{X: r.X, Y: r.Y}), m.Apply(Point{X: r.X + r.Width, Y: r.Y + r.Height}))
	return Extend(out, RectFromPoints(
		m.Apply(Point{X: r.X + r.Width, Y: r.Y}),
		m.Apply(Point{X: r.X, Y: r.Y + r.Height}),
	))
}

// ScaleFactor is the factor m applies to lengths, exact for the uniform
// scales cameras produce. Stroke widths use it to stay proportional.
func (m Matrix2D) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// ToSlice is the JSON form used by draw commands.
func (m Matrix2D) ToSlice() []float64 {
	return m[:]
}
