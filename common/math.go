package common

import "github.com/jakecoffman/cp"

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// Direction returns v normalized, or fallback when v is shorter than
// deadzone.
func Direction(v cp.Vector, deadzone float64, fallback cp.Vector) cp.Vector {
	if v.LengthSq() <= deadzone*deadzone || v.LengthSq() == 0 {
		return fallback
	}
	return v.Normalize()
}

// Moving reports whether v is longer than deadzone.
func Moving(v cp.Vector, deadzone float64) bool {
	return v.LengthSq() > deadzone*deadzone && v.LengthSq() > 0
}
