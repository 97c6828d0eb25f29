package driving

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// DatasetService manages dataset records.
type DatasetService interface {
	// Create adds a new, unindexed dataset to a project.
	Create(ctx context.Context, projectID, name string) (*domain.Dataset, error)

	// Get retrieves a dataset.
	Get(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error)

	// List returns the datasets of a project. An empty projectID lists all.
	List(ctx context.Context, projectID string) ([]domain.Dataset, error)
}
