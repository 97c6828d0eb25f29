package driving

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// IndexService manages which datapoint field a dataset's vector index mirrors.
type IndexService interface {
	// Reindex switches the dataset's indexed field to column.
	// A nil column removes the dataset from the vector index.
	// Returns domain.ErrReindexInProgress if the dataset is busy.
	Reindex(ctx context.Context, projectID, datasetID string, column *string) (*domain.Dataset, error)

	// Rebuild deletes and re-creates every point of the dataset for its current field.
	Rebuild(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error)

	// RebuildAll rebuilds every indexed dataset and returns how many were rebuilt.
	RebuildAll(ctx context.Context) (int, error)

	// Status returns the index lifecycle state of a dataset.
	Status(ctx context.Context, datasetID string) (*domain.ReindexStatus, error)
}
