package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// Ensure DatasetStore implements the interface.
var _ driven.DatasetStore = (*DatasetStore)(nil)

// DatasetStore is an in-memory implementation of driven.DatasetStore.
type DatasetStore struct {
	mu         sync.RWMutex
	datasets   map[string]domain.Dataset
	datapoints map[string][]domain.FullDatapoint // dataset ID -> insertion order
}

// NewDatasetStore creates a new in-memory dataset store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		datasets:   make(map[string]domain.Dataset),
		datapoints: make(map[string][]domain.FullDatapoint),
	}
}

// GetDataset retrieves a dataset within a project.
func (s *DatasetStore) GetDataset(_ context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[datasetID]
	if !ok || (projectID != "" && ds.ProjectID != projectID) {
		return nil, domain.ErrNotFound
	}
	return &ds, nil
}

// SaveDataset creates or updates a dataset.
func (s *DatasetStore) SaveDataset(_ context.Context, dataset *domain.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[dataset.ID] = *dataset
	return nil
}

// ListDatasets returns datasets ordered by creation time.
func (s *DatasetStore) ListDatasets(_ context.Context, projectID string) ([]domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		if projectID == "" || ds.ProjectID == projectID {
			result = append(result, ds)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// GetFullDatapoints returns datapoints in insertion order.
func (s *DatasetStore) GetFullDatapoints(
	_ context.Context,
	datasetID string,
	limit, offset int,
) ([]domain.FullDatapoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.datapoints[datasetID]
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []domain.FullDatapoint{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	result := make([]domain.FullDatapoint, end-offset)
	copy(result, all[offset:end])
	return result, nil
}

// GetDatapoint retrieves a single datapoint.
func (s *DatasetStore) GetDatapoint(_ context.Context, datasetID, id string) (*domain.FullDatapoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, dp := range s.datapoints[datasetID] {
		if dp.ID == id {
			return &dp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// InsertDatapoints appends datapoints to their datasets.
func (s *DatasetStore) InsertDatapoints(_ context.Context, datapoints []domain.Datapoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for _, dps := range s.datapoints {
		for _, dp := range dps {
			seen[dp.ID] = true
		}
	}
	for _, dp := range datapoints {
		if _, ok := s.datasets[dp.DatasetID]; !ok {
			return domain.ErrNotFound
		}
		if seen[dp.ID] {
			return domain.ErrAlreadyExists
		}
		seen[dp.ID] = true
	}

	now := time.Now()
	for i, dp := range datapoints {
		s.datapoints[dp.DatasetID] = append(s.datapoints[dp.DatasetID], domain.FullDatapoint{
			ID:           dp.ID,
			DatasetID:    dp.DatasetID,
			Data:         dp.Data,
			Target:       dp.Target,
			Metadata:     dp.Metadata,
			CreatedAt:    now,
			IndexInBatch: i,
		})
	}
	return nil
}

// UpdateDatapoint replaces data, target and metadata of a datapoint.
func (s *DatasetStore) UpdateDatapoint(_ context.Context, dp domain.Datapoint) (*domain.FullDatapoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dps := s.datapoints[dp.DatasetID]
	for i := range dps {
		if dps[i].ID == dp.ID {
			dps[i].Data = dp.Data
			dps[i].Target = dp.Target
			dps[i].Metadata = dp.Metadata
			updated := dps[i]
			return &updated, nil
		}
	}
	return nil, domain.ErrNotFound
}

// UpdateIndexColumn sets the dataset's indexed field.
func (s *DatasetStore) UpdateIndexColumn(_ context.Context, datasetID string, column *string) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.datasets[datasetID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if column != nil {
		c := *column
		ds.IndexedOn = &c
	} else {
		ds.IndexedOn = nil
	}
	s.datasets[datasetID] = ds
	return &ds, nil
}

// DeleteDatapoints removes the given datapoints and returns the ids deleted.
func (s *DatasetStore) DeleteDatapoints(_ context.Context, datasetID string, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	var deleted []string
	kept := s.datapoints[datasetID][:0]
	for _, dp := range s.datapoints[datasetID] {
		if remove[dp.ID] {
			deleted = append(deleted, dp.ID)
			continue
		}
		kept = append(kept, dp)
	}
	s.datapoints[datasetID] = kept
	return deleted, nil
}

// DeleteAllDatapoints removes every datapoint of a dataset.
func (s *DatasetStore) DeleteAllDatapoints(_ context.Context, datasetID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.datapoints[datasetID]))
	for _, dp := range s.datapoints[datasetID] {
		ids = append(ids, dp.ID)
	}
	delete(s.datapoints, datasetID)
	return ids, nil
}

// DeleteDataset removes a dataset and its datapoints.
func (s *DatasetStore) DeleteDataset(_ context.Context, datasetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[datasetID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.datasets, datasetID)
	delete(s.datapoints, datasetID)
	return nil
}
