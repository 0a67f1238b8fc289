package index

import "math"

// normEpsilon guards against division by zero for a degenerate
// all-zero vector.
const normEpsilon = 1e-12

// Normalize scales a vector to unit L2 length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// NormalizeRows unit-normalizes every row of a matrix in place.
func NormalizeRows(m [][]float32) {
	for _, row := range m {
		Normalize(row)
	}
}

// Dot returns the dot product of two vectors. For unit-normalized
// vectors this equals their cosine similarity. Mismatched or empty
// vectors yield 0.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
