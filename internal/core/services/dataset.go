package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
)

// Ensure DatasetService implements the interface.
var _ driving.DatasetService = (*DatasetService)(nil)

// DatasetService manages dataset records. Index changes go through
// IndexService and deletions through DeletionService.
type DatasetService struct {
	store driven.DatasetStore
}

// NewDatasetService creates a new dataset service.
func NewDatasetService(store driven.DatasetStore) *DatasetService {
	return &DatasetService{store: store}
}

// Create adds a new unindexed dataset.
func (s *DatasetService) Create(ctx context.Context, projectID, name string) (*domain.Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: dataset name is required", domain.ErrInvalidInput)
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: project is required", domain.ErrInvalidInput)
	}

	dataset := &domain.Dataset{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveDataset(ctx, dataset); err != nil {
		return nil, storeErr("save dataset", err)
	}
	return dataset, nil
}

// Get retrieves a dataset.
func (s *DatasetService) Get(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}
	return dataset, nil
}

// List returns the datasets of a project.
func (s *DatasetService) List(ctx context.Context, projectID string) ([]domain.Dataset, error) {
	datasets, err := s.store.ListDatasets(ctx, projectID)
	if err != nil {
		return nil, storeErr("list datasets", err)
	}
	return datasets, nil
}
