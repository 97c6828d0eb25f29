package driving

import "context"

// DeletionService removes datapoints from the store and then from the vector index.
type DeletionService interface {
	// DeleteDatapoint removes one datapoint.
	DeleteDatapoint(ctx context.Context, projectID, datasetID, id string) error

	// DeleteDatapoints removes the given datapoints and returns the ids deleted.
	DeleteDatapoints(ctx context.Context, projectID, datasetID string, ids []string) ([]string, error)

	// DeleteAllDatapoints empties a dataset and returns the ids deleted.
	DeleteAllDatapoints(ctx context.Context, projectID, datasetID string) ([]string, error)

	// DeleteDataset removes a dataset with all of its datapoints.
	DeleteDataset(ctx context.Context, projectID, datasetID string) error
}
