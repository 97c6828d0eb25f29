package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

var errMock = errors.New("mock failure")

type mockDatasetService struct {
	datasets []domain.Dataset
	err      error

	gotProject string
	gotName    string
}

func (m *mockDatasetService) Create(_ context.Context, projectID, name string) (*domain.Dataset, error) {
	m.gotProject, m.gotName = projectID, name
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Dataset{ID: "ds-new", ProjectID: projectID, Name: name}, nil
}

func (m *mockDatasetService) Get(_ context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	m.gotProject = projectID
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.datasets {
		if m.datasets[i].ID == datasetID {
			return &m.datasets[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDatasetService) List(_ context.Context, projectID string) ([]domain.Dataset, error) {
	m.gotProject = projectID
	return m.datasets, m.err
}

type mockDatapointService struct {
	result     *domain.IngestResult
	datapoints []domain.FullDatapoint
	hits       []domain.VectorHit
	err        error

	gotRaws     []any
	gotRaw      any
	gotFilename string
	gotContent  string
	gotLimit    int
	gotOffset   int
	gotQuery    string
}

func (m *mockDatapointService) Create(_ context.Context, _, datasetID string, raws []any) (*domain.IngestResult, error) {
	m.gotRaws = raws
	if m.result != nil {
		return m.result, m.err
	}
	report := domain.ParseDatapoints(datasetID, raws)
	return &domain.IngestResult{Parse: report, Datapoints: report.Datapoints()}, m.err
}

func (m *mockDatapointService) Upload(
	_ context.Context, _, _, filename string, content []byte,
) (*domain.IngestResult, error) {
	m.gotFilename, m.gotContent = filename, string(content)
	return m.result, m.err
}

func (m *mockDatapointService) Update(_ context.Context, _, _, id string, raw any) (*domain.Datapoint, error) {
	m.gotRaw = raw
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Datapoint{ID: id}, nil
}

func (m *mockDatapointService) List(_ context.Context, _, _ string, limit, offset int) ([]domain.FullDatapoint, error) {
	m.gotLimit, m.gotOffset = limit, offset
	return m.datapoints, m.err
}

func (m *mockDatapointService) Search(_ context.Context, _, _, query string, k int) ([]domain.VectorHit, error) {
	m.gotQuery, m.gotLimit = query, k
	return m.hits, m.err
}

type mockDeletionService struct {
	err error

	gotIDs          []string
	single          bool
	all             bool
	deletedDatasets []string
}

func (m *mockDeletionService) DeleteDatapoint(_ context.Context, _, _, id string) error {
	m.single, m.gotIDs = true, []string{id}
	return m.err
}

func (m *mockDeletionService) DeleteDatapoints(_ context.Context, _, _ string, ids []string) ([]string, error) {
	m.gotIDs = ids
	if m.err != nil {
		return nil, m.err
	}
	return ids[:len(ids)-1], nil
}

func (m *mockDeletionService) DeleteAllDatapoints(_ context.Context, _, _ string) ([]string, error) {
	m.all = true
	return []string{"a", "b", "c"}, m.err
}

func (m *mockDeletionService) DeleteDataset(_ context.Context, _, datasetID string) error {
	m.deletedDatasets = append(m.deletedDatasets, datasetID)
	return m.err
}

type mockIndexService struct {
	status  *domain.ReindexStatus
	err     error
	rebuilt int

	gotProject string
	gotDataset string
	gotColumn  *string
	reindexed  bool
	rebuild    bool
}

func (m *mockIndexService) Reindex(_ context.Context, projectID, datasetID string, column *string) (*domain.Dataset, error) {
	m.gotProject, m.gotDataset, m.gotColumn, m.reindexed = projectID, datasetID, column, true
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Dataset{ID: datasetID, ProjectID: projectID, Name: "mock", IndexedOn: column}, nil
}

func (m *mockIndexService) Rebuild(_ context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	m.gotProject, m.gotDataset, m.rebuild = projectID, datasetID, true
	if m.err != nil {
		return nil, m.err
	}
	col := "data.text"
	return &domain.Dataset{ID: datasetID, ProjectID: projectID, IndexedOn: &col}, nil
}

func (m *mockIndexService) RebuildAll(context.Context) (int, error) {
	return m.rebuilt, m.err
}

func (m *mockIndexService) Status(_ context.Context, datasetID string) (*domain.ReindexStatus, error) {
	m.gotDataset = datasetID
	if m.err != nil {
		return nil, m.err
	}
	if m.status != nil {
		return m.status, nil
	}
	return &domain.ReindexStatus{DatasetID: datasetID, State: domain.ReindexIdle}, nil
}

// mockSettingsService keeps values in a map keyed like config.toml.
type mockSettingsService struct {
	mu          sync.Mutex
	values      map[string]string
	settings    domain.AppSettings
	validateErr error
	pingErr     error
	setErr      error

	gotProvider domain.AIProvider
	gotModel    string
	gotAPIKey   string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		values: map[string]string{
			"indexing.batch_size": "50",
			"embedding.provider":  "hash",
			"embedding.api_key":   "",
		},
		settings: domain.DefaultAppSettings(),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.gotProvider, m.gotModel, m.gotAPIKey = provider, model, apiKey
	return m.setErr
}

func (m *mockSettingsService) SetBatchSize(size int) error {
	m.settings.Indexing.BatchSize = size
	return m.setErr
}

func (m *mockSettingsService) SetVectorBackend(backend domain.VectorBackend) error {
	m.settings.VectorIndex.Backend = backend
	return m.setErr
}

func (m *mockSettingsService) GetValue(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrInvalidInput
	}
	return v, nil
}

func (m *mockSettingsService) SetValue(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	return m.settings.SchedulerConfig()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

type mockScheduler struct {
	err     error
	ran     []string
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

func (m *mockScheduler) RunNow(_ context.Context, taskID string) error {
	m.ran = append(m.ran, taskID)
	return m.err
}
