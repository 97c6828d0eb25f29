package driven

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// VectorIndex stores embedding points per namespace and answers similarity queries.
// Points are keyed by (namespace, id); the index is a disposable cache of the store.
type VectorIndex interface {
	// Upsert inserts or overwrites points by ID.
	Upsert(ctx context.Context, namespace string, points []domain.EmbeddingPoint) error

	// Delete removes every point in the namespace whose payload matches any filter.
	// An empty filter list deletes nothing. Matching nothing is not an error.
	Delete(ctx context.Context, namespace string, filters []domain.Filter) error

	// Search finds the k nearest points to the query vector.
	// A non-empty filter restricts candidates to matching payloads.
	Search(ctx context.Context, namespace string, query []float32, k int, filter domain.Filter) ([]domain.VectorHit, error)

	// Count returns the number of points in the namespace matching the filter.
	// An empty filter counts every point in the namespace.
	Count(ctx context.Context, namespace string, filter domain.Filter) (int, error)

	// Close releases resources.
	Close() error
}
