// Package memory provides an in-process vector index.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/vector"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index keeps embedding points in a map per namespace.
type Index struct {
	mu     sync.RWMutex
	points map[string]map[string]domain.EmbeddingPoint // namespace -> id -> point
	closed bool
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{points: make(map[string]map[string]domain.EmbeddingPoint)}
}

// Upsert inserts or overwrites points by ID.
func (x *Index) Upsert(_ context.Context, namespace string, points []domain.EmbeddingPoint) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrVectorIndexUnavailable
	}
	ns, ok := x.points[namespace]
	if !ok {
		ns = make(map[string]domain.EmbeddingPoint)
		x.points[namespace] = ns
	}
	for _, p := range points {
		ns[p.ID] = domain.EmbeddingPoint{
			ID:      p.ID,
			Vector:  slices.Clone(p.Vector),
			Payload: maps.Clone(p.Payload),
		}
	}
	return nil
}

// Delete removes points matching any filter.
func (x *Index) Delete(_ context.Context, namespace string, filters []domain.Filter) error {
	if len(filters) == 0 {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrVectorIndexUnavailable
	}
	for id, p := range x.points[namespace] {
		if domain.MatchesAny(filters, p.Payload) {
			delete(x.points[namespace], id)
		}
	}
	return nil
}

// Search scores every candidate by cosine similarity.
func (x *Index) Search(
	_ context.Context,
	namespace string,
	query []float32,
	k int,
	filter domain.Filter,
) ([]domain.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, domain.ErrVectorIndexUnavailable
	}
	hits := make([]domain.VectorHit, 0, len(x.points[namespace]))
	for _, p := range x.points[namespace] {
		if len(filter) > 0 && !filter.Matches(p.Payload) {
			continue
		}
		hits = append(hits, domain.VectorHit{
			ID:         p.ID,
			Similarity: vector.Cosine(query, p.Vector),
			Payload:    maps.Clone(p.Payload),
		})
	}
	return vector.TopK(hits, k), nil
}

// Count returns the number of points matching filter.
func (x *Index) Count(_ context.Context, namespace string, filter domain.Filter) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return 0, domain.ErrVectorIndexUnavailable
	}
	if len(filter) == 0 {
		return len(x.points[namespace]), nil
	}
	n := 0
	for _, p := range x.points[namespace] {
		if filter.Matches(p.Payload) {
			n++
		}
	}
	return n, nil
}

// Get returns a copy of a point, for inspection in tests and diagnostics.
func (x *Index) Get(namespace, id string) (domain.EmbeddingPoint, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.points[namespace][id]
	return p, ok
}

// Close marks the index unusable.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}
