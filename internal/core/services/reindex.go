package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// rebuildConcurrency bounds how many datasets RebuildAll works on at once.
const rebuildConcurrency = 4

// IndexService moves a dataset's vector index from one field to another.
//
// Every change runs delete-before-index: embeddings of the old field are
// removed, the new field is indexed in batches, and only then is the
// dataset's indexed field committed. A failure at any phase leaves the
// committed field untouched; repeating the call converges.
type IndexService struct {
	store   driven.DatasetStore
	client  driven.EmbeddingClient
	indexer *BatchIndexer
	locks   *DatasetLocks

	// Status tracking
	mu       sync.RWMutex
	statuses map[string]*domain.ReindexStatus
}

// NewIndexService creates a re-index orchestrator.
func NewIndexService(
	store driven.DatasetStore,
	client driven.EmbeddingClient,
	indexer *BatchIndexer,
	locks *DatasetLocks,
) *IndexService {
	return &IndexService{
		store:    store,
		client:   client,
		indexer:  indexer,
		locks:    locks,
		statuses: make(map[string]*domain.ReindexStatus),
	}
}

// Reindex switches the dataset's indexed field to column.
func (s *IndexService) Reindex(
	ctx context.Context,
	projectID, datasetID string,
	column *string,
) (*domain.Dataset, error) {
	if !s.locks.TryLock(datasetID) {
		return nil, fmt.Errorf("%w: dataset %s", domain.ErrReindexInProgress, datasetID)
	}
	defer s.locks.Unlock(datasetID)

	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}

	if domain.SameIndexColumn(dataset.IndexedOn, column) {
		logger.Info("Re-index %s: already indexed on %q", datasetID, dataset.IndexedOnString())
		s.setStatus(&domain.ReindexStatus{
			DatasetID: datasetID,
			State:     domain.ReindexUnchanged,
			From:      dataset.IndexedOn,
			To:        column,
			StartedAt: time.Now(),
		})
		return dataset, nil
	}

	return s.run(ctx, projectID, dataset, column)
}

// Rebuild re-creates every point of the dataset for its current field.
// A dataset that is not indexed is returned unchanged.
func (s *IndexService) Rebuild(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	if !s.locks.TryLock(datasetID) {
		return nil, fmt.Errorf("%w: dataset %s", domain.ErrReindexInProgress, datasetID)
	}
	defer s.locks.Unlock(datasetID)

	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}
	if !dataset.IsIndexed() {
		return dataset, nil
	}

	return s.run(ctx, projectID, dataset, dataset.IndexedOn)
}

// RebuildAll rebuilds every indexed dataset, a few at a time. Datasets
// busy with another operation are skipped. Failures do not stop the pass;
// they are joined.
func (s *IndexService) RebuildAll(ctx context.Context) (int, error) {
	datasets, err := s.store.ListDatasets(ctx, "")
	if err != nil {
		return 0, storeErr("list datasets", err)
	}

	var (
		mu      sync.Mutex
		rebuilt int
		errs    []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildConcurrency)

	for i := range datasets {
		ds := datasets[i]
		if !ds.IsIndexed() {
			continue
		}
		g.Go(func() error {
			_, err := s.Rebuild(gctx, ds.ProjectID, ds.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				rebuilt++
			case errors.Is(err, domain.ErrReindexInProgress):
				logger.Warn("Rebuild %s skipped: %v", ds.ID, err)
			default:
				errs = append(errs, fmt.Errorf("rebuild %s: %w", ds.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return rebuilt, errors.Join(errs...)
}

// Status returns the latest lifecycle state of a dataset. Datasets never
// touched since startup report ReindexIdle.
func (s *IndexService) Status(_ context.Context, datasetID string) (*domain.ReindexStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[datasetID]
	if !ok {
		return &domain.ReindexStatus{DatasetID: datasetID, State: domain.ReindexIdle}, nil
	}
	statusCopy := *status
	return &statusCopy, nil
}

// Forget drops the tracked status of a dataset, e.g. after it is deleted.
func (s *IndexService) Forget(datasetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, datasetID)
}

// run executes the delete-before-index state machine. The caller holds
// the dataset lock.
func (s *IndexService) run(
	ctx context.Context,
	projectID string,
	dataset *domain.Dataset,
	column *string,
) (*domain.Dataset, error) {
	status := &domain.ReindexStatus{
		DatasetID: dataset.ID,
		State:     domain.ReindexLoading,
		From:      dataset.IndexedOn,
		To:        column,
		StartedAt: time.Now(),
	}
	s.setStatus(status)

	logger.Section("Re-index " + dataset.ID)
	logger.Info("Re-index %s: %q -> %q", dataset.ID, dataset.IndexedOnString(), derefOr(column, ""))

	full, err := s.store.GetFullDatapoints(ctx, dataset.ID, 0, 0)
	if err != nil {
		return nil, s.fail(status, storeErr("load datapoints", err))
	}
	datapoints := domain.ProjectDatapoints(full)

	if dataset.IsIndexed() {
		s.transition(status, domain.ReindexDeletingOld)
		filters := []domain.Filter{domain.DatasetFilter(dataset.ID)}
		if err := s.client.Delete(ctx, projectID, filters); err != nil {
			return nil, s.fail(status, fmt.Errorf("delete old embeddings: %w", err))
		}
	}

	if column != nil {
		s.transition(status, domain.ReindexIndexing)
		report, err := s.indexer.index(ctx, datapoints, projectID, column,
			func(_ domain.BatchOutcome, totalBatches int) {
				s.mu.Lock()
				status.BatchesDone++
				status.BatchesTotal = totalBatches
				s.mu.Unlock()
			})
		if err != nil {
			return nil, s.fail(status, fmt.Errorf("index %q: %w", *column, err))
		}
		logger.Info("Re-index %s: indexed %d datapoints in %d batches",
			dataset.ID, report.Indexed(), report.TotalBatches)
	}

	s.transition(status, domain.ReindexCommitting)
	updated, err := s.store.UpdateIndexColumn(ctx, dataset.ID, column)
	if err != nil {
		return nil, s.fail(status, storeErr("commit index column", err))
	}

	s.transition(status, domain.ReindexDone)
	return updated, nil
}

func (s *IndexService) setStatus(status *domain.ReindexStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DatasetID] = status
}

func (s *IndexService) transition(status *domain.ReindexStatus, state domain.ReindexState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Debug("Re-index %s: %s -> %s", status.DatasetID, status.State, state)
	status.State = state
}

// fail marks the status failed and returns err unchanged.
func (s *IndexService) fail(status *domain.ReindexStatus, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Warn("Re-index %s failed during %s: %v", status.DatasetID, status.State, err)
	status.State = domain.ReindexFailed
	status.Error = err.Error()
	return err
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
