package driven

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// DatasetStore is the relational system of record for datasets and datapoints.
// The vector index is derived from it and can always be rebuilt from it.
type DatasetStore interface {
	// GetDataset retrieves a dataset within a project.
	// Returns domain.ErrNotFound if it does not exist.
	GetDataset(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error)

	// SaveDataset creates or updates a dataset.
	SaveDataset(ctx context.Context, dataset *domain.Dataset) error

	// ListDatasets returns all datasets of a project. An empty projectID lists every dataset.
	ListDatasets(ctx context.Context, projectID string) ([]domain.Dataset, error)

	// GetFullDatapoints returns datapoints of a dataset in insertion order.
	// A limit of zero or less returns all of them.
	GetFullDatapoints(ctx context.Context, datasetID string, limit, offset int) ([]domain.FullDatapoint, error)

	// GetDatapoint retrieves a single datapoint.
	// Returns domain.ErrNotFound if it does not exist in the dataset.
	GetDatapoint(ctx context.Context, datasetID, id string) (*domain.FullDatapoint, error)

	// InsertDatapoints persists new datapoints.
	InsertDatapoints(ctx context.Context, datapoints []domain.Datapoint) error

	// UpdateDatapoint replaces data, target and metadata of an existing datapoint.
	// Returns domain.ErrNotFound if it does not exist in the dataset.
	UpdateDatapoint(ctx context.Context, dp domain.Datapoint) (*domain.FullDatapoint, error)

	// UpdateIndexColumn sets the dataset's indexed field and returns the updated dataset.
	UpdateIndexColumn(ctx context.Context, datasetID string, column *string) (*domain.Dataset, error)

	// DeleteDatapoints removes the given datapoints and returns the ids actually deleted.
	DeleteDatapoints(ctx context.Context, datasetID string, ids []string) ([]string, error)

	// DeleteAllDatapoints removes every datapoint of a dataset and returns their ids.
	DeleteAllDatapoints(ctx context.Context, datasetID string) ([]string, error)

	// DeleteDataset removes a dataset and, by cascade, its datapoints.
	DeleteDataset(ctx context.Context, datasetID string) error
}
