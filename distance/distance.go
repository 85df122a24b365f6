package distance

import "math"

// Cosine returns the cosine similarity of a and b.
//
// It is 0 when either vector has zero norm, and is clamped to [-1, 1] so
// that rounding never reports a similarity outside the valid range.
// Assumes vectors are the same length (caller's responsibility).
func Cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return float32(max(-1, min(1, sim)))
}
