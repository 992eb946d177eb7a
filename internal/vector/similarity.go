// Package vector provides similarity scoring and vector indices for policy chunks.
package vector

import (
	"fmt"
	"math"

	"github.com/hyperjump/shinsa/internal/models"
)

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales x in place to unit length and reports whether it could.
// A zero vector is left unchanged.
func Normalize(x []float32) bool {
	n := L2Norm(x)
	if n == 0 {
		return false
	}
	for i := range x {
		x[i] = float32(float64(x[i]) / n)
	}
	return true
}

// Cosine returns the cosine similarity of a and b clamped to [-1, 1].
// Vectors of different length or zero norm yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(InnerProduct(a, b) / (na * nb))
}

// MaxCosine returns the best cosine similarity between v and any of refs.
// An empty refs set scores 0. An empty or zero vector, or a ref whose dimension
// differs from v, is an InvalidInputError.
func MaxCosine(v []float32, refs [][]float32) (float64, error) {
	if len(v) == 0 {
		return 0, &models.InvalidInputError{Reason: "vector is empty"}
	}
	norm := L2Norm(v)
	if norm == 0 {
		return 0, &models.InvalidInputError{Reason: "vector has zero norm"}
	}
	if len(refs) == 0 {
		return 0, nil
	}
	best := math.Inf(-1)
	for i, ref := range refs {
		if len(ref) != len(v) {
			return 0, &models.InvalidInputError{
				Reason: fmt.Sprintf("reference %d dimension mismatch: got %d, expected %d", i, len(ref), len(v)),
			}
		}
		rn := L2Norm(ref)
		if rn == 0 {
			continue
		}
		if s := clamp(InnerProduct(v, ref) / (norm * rn)); s > best {
			best = s
		}
	}
	if math.IsInf(best, -1) {
		return 0, nil
	}
	return best, nil
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
