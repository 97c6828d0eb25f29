package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// MockIndexService implements driving.IndexService for tests. Status
// returns the queued snapshots in order and repeats the last one.
type MockIndexService struct {
	mu       sync.Mutex
	statuses []*domain.ReindexStatus
	err      error
	polls    int
}

func (m *MockIndexService) Reindex(context.Context, string, string, *string) (*domain.Dataset, error) {
	return nil, nil
}

func (m *MockIndexService) Rebuild(context.Context, string, string) (*domain.Dataset, error) {
	return nil, nil
}

func (m *MockIndexService) RebuildAll(context.Context) (int, error) {
	return 0, nil
}

func (m *MockIndexService) Status(_ context.Context, datasetID string) (*domain.ReindexStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.statuses) == 0 {
		return &domain.ReindexStatus{DatasetID: datasetID, State: domain.ReindexIdle}, nil
	}
	st := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}
	return st, nil
}

func (m *MockIndexService) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}
