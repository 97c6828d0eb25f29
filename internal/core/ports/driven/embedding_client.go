package driven

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// EmbeddingClient keeps datapoints mirrored in the vector index.
type EmbeddingClient interface {
	// Index embeds indexColumn of each datapoint and upserts one point per datapoint.
	// Points that cannot be embedded are skipped; the rest are still written and
	// the joined per-point failures are returned.
	Index(ctx context.Context, namespace string, datapoints []domain.Datapoint, indexColumn string) error

	// Delete removes every point matching any of the filters.
	// An empty filter list is a no-op.
	Delete(ctx context.Context, namespace string, filters []domain.Filter) error

	// Search embeds the query text and returns the nearest points.
	Search(ctx context.Context, namespace, query string, k int, filter domain.Filter) ([]domain.VectorHit, error)
}
