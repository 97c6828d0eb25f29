package vector

import (
	"math"
	"sort"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// Cosine returns the cosine similarity of two vectors. Vectors of
// different length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
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
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK sorts hits by descending similarity, ties by ID, and keeps the first k.
// A k of zero or less keeps every hit.
func TopK(hits []domain.VectorHit, k int) []domain.VectorHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity == hits[j].Similarity {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Similarity > hits[j].Similarity
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
