package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// Ensure DeletionService implements the interface.
var _ driving.DeletionService = (*DeletionService)(nil)

// DeletionService deletes from the store first and then removes the
// matching points from the vector index. The two steps are not atomic; a
// point left behind by a failed second step is cleared by a rebuild.
type DeletionService struct {
	store  driven.DatasetStore
	client driven.EmbeddingClient
	locks  *DatasetLocks
	status *IndexService
}

// NewDeletionService creates a deletion propagator. The index service is
// optional and only used to drop status of deleted datasets.
func NewDeletionService(
	store driven.DatasetStore,
	client driven.EmbeddingClient,
	locks *DatasetLocks,
	status *IndexService,
) *DeletionService {
	return &DeletionService{
		store:  store,
		client: client,
		locks:  locks,
		status: status,
	}
}

// DeleteDatapoint removes one datapoint. The embedding delete is sent even
// when the store had no such row so that stray points are cleared; the
// call then reports domain.ErrNotFound.
func (s *DeletionService) DeleteDatapoint(ctx context.Context, projectID, datasetID, id string) error {
	deleted, err := s.DeleteDatapoints(ctx, projectID, datasetID, []string{id})
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return fmt.Errorf("%w: datapoint %s", domain.ErrNotFound, id)
	}
	return nil
}

// DeleteDatapoints removes the given datapoints with one embedding delete
// carrying an {id, datasource_id} filter per id.
func (s *DeletionService) DeleteDatapoints(
	ctx context.Context,
	projectID, datasetID string,
	ids []string,
) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := s.locks.RLock(ctx, datasetID); err != nil {
		return nil, err
	}
	defer s.locks.RUnlock(datasetID)

	if _, err := s.store.GetDataset(ctx, projectID, datasetID); err != nil {
		return nil, storeErr("get dataset", err)
	}

	deleted, err := s.store.DeleteDatapoints(ctx, datasetID, ids)
	if err != nil {
		return nil, storeErr("delete datapoints", err)
	}

	filters := make([]domain.Filter, len(ids))
	for i, id := range ids {
		filters[i] = domain.ScopedDatapointFilter(id, datasetID)
	}
	if err := s.client.Delete(ctx, projectID, filters); err != nil {
		return deleted, fmt.Errorf("delete embeddings: %w", err)
	}

	logger.Info("Deleted %d of %d datapoints from %s", len(deleted), len(ids), datasetID)
	return deleted, nil
}

// DeleteAllDatapoints empties a dataset. Points are removed by the ids the
// store reports as deleted; no ids means no embedding call.
func (s *DeletionService) DeleteAllDatapoints(ctx context.Context, projectID, datasetID string) ([]string, error) {
	if !s.locks.TryLock(datasetID) {
		return nil, fmt.Errorf("%w: dataset %s", domain.ErrReindexInProgress, datasetID)
	}
	defer s.locks.Unlock(datasetID)

	if _, err := s.store.GetDataset(ctx, projectID, datasetID); err != nil {
		return nil, storeErr("get dataset", err)
	}

	deleted, err := s.store.DeleteAllDatapoints(ctx, datasetID)
	if err != nil {
		return nil, storeErr("delete all datapoints", err)
	}
	if len(deleted) == 0 {
		return deleted, nil
	}

	filters := make([]domain.Filter, len(deleted))
	for i, id := range deleted {
		filters[i] = domain.DatapointFilter(id)
	}
	if err := s.client.Delete(ctx, projectID, filters); err != nil {
		return deleted, fmt.Errorf("delete embeddings: %w", err)
	}

	logger.Info("Deleted all %d datapoints from %s", len(deleted), datasetID)
	return deleted, nil
}

// DeleteDataset removes a dataset and every point carrying its id.
func (s *DeletionService) DeleteDataset(ctx context.Context, projectID, datasetID string) error {
	if !s.locks.TryLock(datasetID) {
		return fmt.Errorf("%w: dataset %s", domain.ErrReindexInProgress, datasetID)
	}
	defer s.locks.Unlock(datasetID)

	if _, err := s.store.GetDataset(ctx, projectID, datasetID); err != nil {
		return storeErr("get dataset", err)
	}

	if err := s.store.DeleteDataset(ctx, datasetID); err != nil {
		return storeErr("delete dataset", err)
	}
	if s.status != nil {
		s.status.Forget(datasetID)
	}

	filters := []domain.Filter{domain.DatasetFilter(datasetID)}
	if err := s.client.Delete(ctx, projectID, filters); err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}

	logger.Info("Deleted dataset %s", datasetID)
	return nil
}
