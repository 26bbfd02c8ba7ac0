// Package similarity provides the scalar comparison functions used to
// score model outputs against each other.
package similarity

import "math"

// Cosine returns the cosine similarity of two equal-length vectors.
// It returns 0 for mismatched lengths or zero-magnitude inputs.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Numeric returns 1 - |a-b| / max(|a|,|b|), the normalized closeness of
// two numbers. Two zeros are identical, so the similarity is 1.
func Numeric(a, b float64) float64 {
	maxAbs := math.Max(math.Abs(a), math.Abs(b))
	if maxAbs == 0 {
		return 1
	}
	return 1 - math.Abs(a-b)/maxAbs
}
