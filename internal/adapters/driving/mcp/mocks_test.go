package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	dataset *domain.Dataset
	status  *domain.ReindexStatus
	err     error

	gotProject string
	gotDataset string
	gotColumn  *string
	rebuilt    bool
}

func (m *mockIndexService) Reindex(_ context.Context, projectID, datasetID string, column *string) (*domain.Dataset, error) {
	m.gotProject, m.gotDataset, m.gotColumn = projectID, datasetID, column
	return m.dataset, m.err
}

func (m *mockIndexService) Rebuild(_ context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	m.gotProject, m.gotDataset, m.rebuilt = projectID, datasetID, true
	return m.dataset, m.err
}

func (m *mockIndexService) RebuildAll(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) Status(_ context.Context, datasetID string) (*domain.ReindexStatus, error) {
	m.gotDataset = datasetID
	return m.status, m.err
}

// mockDatapointService is a mock implementation of driving.DatapointService.
type mockDatapointService struct {
	hits       []domain.VectorHit
	datapoints []domain.FullDatapoint
	err        error

	gotProject string
	gotLimit   int
}

func (m *mockDatapointService) Create(_ context.Context, _, _ string, _ []any) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, m.err
}

func (m *mockDatapointService) Upload(_ context.Context, _, _, _ string, _ []byte) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, m.err
}

func (m *mockDatapointService) Update(_ context.Context, _, _, _ string, _ any) (*domain.Datapoint, error) {
	return nil, m.err
}

func (m *mockDatapointService) List(_ context.Context, projectID, _ string, limit, _ int) ([]domain.FullDatapoint, error) {
	m.gotProject, m.gotLimit = projectID, limit
	return m.datapoints, m.err
}

func (m *mockDatapointService) Search(_ context.Context, projectID, _, _ string, k int) ([]domain.VectorHit, error) {
	m.gotProject, m.gotLimit = projectID, k
	return m.hits, m.err
}

// mockDeletionService is a mock implementation of driving.DeletionService.
type mockDeletionService struct {
	deleted []string
	err     error

	calledAll bool
	gotIDs    []string
}

func (m *mockDeletionService) DeleteDatapoint(_ context.Context, _, _, _ string) error {
	return m.err
}

func (m *mockDeletionService) DeleteDatapoints(_ context.Context, _, _ string, ids []string) ([]string, error) {
	m.gotIDs = ids
	return m.deleted, m.err
}

func (m *mockDeletionService) DeleteAllDatapoints(_ context.Context, _, _ string) ([]string, error) {
	m.calledAll = true
	return m.deleted, m.err
}

func (m *mockDeletionService) DeleteDataset(_ context.Context, _, _ string) error {
	return m.err
}

// mockDatasetService is a mock implementation of driving.DatasetService.
type mockDatasetService struct {
	datasets []domain.Dataset
	err      error
}

func (m *mockDatasetService) Create(_ context.Context, _, _ string) (*domain.Dataset, error) {
	return nil, m.err
}

func (m *mockDatasetService) Get(_ context.Context, _, _ string) (*domain.Dataset, error) {
	return nil, m.err
}

func (m *mockDatasetService) List(_ context.Context, _ string) ([]domain.Dataset, error) {
	return m.datasets, m.err
}

// Ensure mocks implement interfaces
var (
	_ driving.IndexService     = (*mockIndexService)(nil)
	_ driving.DatapointService = (*mockDatapointService)(nil)
	_ driving.DeletionService  = (*mockDeletionService)(nil)
	_ driving.DatasetService   = (*mockDatasetService)(nil)
)

func validPorts() *Ports {
	return &Ports{
		Index:     &mockIndexService{},
		Datapoint: &mockDatapointService{},
		Deletion:  &mockDeletionService{},
		Project:   "default",
	}
}
