package anim

// Easing names an interpolation curve.
type Easing string

const (
	EasingLinear     Easing = "linear"
	EasingEaseIn     Easing = "easeIn"
	EasingEaseOut    Easing = "easeOut"
	EasingEaseInOut  Easing = "easeInOut"
	EasingCubicIn    Easing = "cubicIn"
	EasingCubicOut   Easing = "cubicOut"
	EasingCubicInOut Easing = "cubicInOut"

	// EasingPower2Out is the GSAP name for a cubic ease-out.
	EasingPower2Out Easing = "power2Out"
)

// Ease applies the easing curve to interpolation factor t (0-1).
// Unknown easings are linear.
func (e Easing) Ease(t float64) float64 {
	switch e {
	case EasingEaseIn:
		return t * t

	case EasingEaseOut:
		return t * (2 - t)

	case EasingEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t

	case EasingCubicIn:
		return t * t * t

	case EasingCubicOut, EasingPower2Out:
		t2 := 1 - t
		return 1 - t2*t2*t2

	case EasingCubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		t2 := -2*t + 2
		return 1 - t2*t2*t2/2

	default:
		return t
	}
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
