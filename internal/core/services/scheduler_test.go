package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	pruneErr error
	pruned   int
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = keep
	return m.pruneErr
}

func (m *mockSchedulerStore) history(taskID string) []domain.TaskResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TaskResult(nil), m.results[taskID]...)
}

// mockIndexService implements driving.IndexService; only RebuildAll is exercised.
type mockIndexService struct {
	rebuildCalls atomic.Int32
	rebuilt      int
	rebuildErr   error
}

func (m *mockIndexService) Reindex(context.Context, string, string, *string) (*domain.Dataset, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIndexService) Rebuild(context.Context, string, string) (*domain.Dataset, error) {
	return nil, errors.New("not implemented")
}

func (m *mockIndexService) RebuildAll(context.Context) (int, error) {
	m.rebuildCalls.Add(1)
	return m.rebuilt, m.rebuildErr
}

func (m *mockIndexService) Status(_ context.Context, datasetID string) (*domain.ReindexStatus, error) {
	return &domain.ReindexStatus{DatasetID: datasetID, State: domain.ReindexIdle}, nil
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.IndexService = (*mockIndexService)(nil)

var schedulerEpoch = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestScheduler(config domain.SchedulerConfig, store *mockSchedulerStore, indexer driving.IndexService) *Scheduler {
	s := NewScheduler(config, store, indexer)
	s.now = func() time.Time { return schedulerEpoch }
	return s
}

// ==================== Scheduler Tests ====================

func TestNewScheduler(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	scheduler := NewScheduler(config, newMockSchedulerStore(), &mockIndexService{})

	require.NotNil(t, scheduler)
	assert.Equal(t, config.Enabled, scheduler.config.Enabled)
}

func TestScheduler_StartStop(t *testing.T) {
	indexer := &mockIndexService{}
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), indexer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	// A freshly created @daily task is not due yet.
	assert.Equal(t, int32(0), indexer.rebuildCalls.Load())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_ContextCancelEndsLoop(t *testing.T) {
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockIndexService{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	_ = scheduler.Stop()
}

func TestScheduler_Disabled(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	config.Enabled = false
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(config, store, &mockIndexService{})

	require.NoError(t, scheduler.Start(context.Background()))
	tasks, _ := store.ListTasks(context.Background())
	assert.Empty(t, tasks)
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), store, &mockIndexService{})
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDIndexRepair)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Index Repair", task.Name)
	assert.True(t, task.Enabled)
	assert.Equal(t, domain.DefaultRepairSchedule, task.Schedule)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), task.NextRun)
}

func TestScheduler_EnsureTask_ScheduleChange(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), store, &mockIndexService{})
	ctx := context.Background()

	cfg := domain.TaskConfig{Enabled: true, Schedule: "@daily"}
	require.NoError(t, scheduler.ensureTask(ctx, "repair", "Repair", cfg))

	cfg.Schedule = "0 * * * *"
	require.NoError(t, scheduler.ensureTask(ctx, "repair", "Repair", cfg))

	task, err := store.GetTask(ctx, "repair")
	require.NoError(t, err)
	assert.Equal(t, "0 * * * *", task.Schedule)
	assert.Equal(t, time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC), task.NextRun)
}

func TestScheduler_EnsureTask_InvalidSchedule(t *testing.T) {
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil)

	err := scheduler.ensureTask(context.Background(), "repair", "Repair",
		domain.TaskConfig{Enabled: true, Schedule: "whenever"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScheduler_RunNow(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{rebuilt: 3}
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), store, indexer)
	ctx := context.Background()

	require.NoError(t, scheduler.RunNow(ctx, domain.TaskIDIndexRepair))
	assert.Equal(t, int32(1), indexer.rebuildCalls.Load())

	history := store.history(domain.TaskIDIndexRepair)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 3, history[0].ItemsProcessed)
	assert.Equal(t, historyRetention, store.pruned)

	task, _ := store.GetTask(ctx, domain.TaskIDIndexRepair)
	assert.Equal(t, schedulerEpoch, task.LastRun)
	assert.Equal(t, schedulerEpoch, task.LastSuccess)
	assert.Empty(t, task.LastError)
}

func TestScheduler_RunNow_Failure(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{rebuildErr: errors.New("rebuild ds-1: upstream failure")}
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), store, indexer)
	ctx := context.Background()

	err := scheduler.RunNow(ctx, domain.TaskIDIndexRepair)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream failure")

	history := store.history(domain.TaskIDIndexRepair)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)

	task, _ := store.GetTask(ctx, domain.TaskIDIndexRepair)
	assert.Contains(t, task.LastError, "upstream failure")
	assert.True(t, task.LastSuccess.IsZero())
}

func TestScheduler_RunNow_UnknownTask(t *testing.T) {
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockIndexService{})
	err := scheduler.RunNow(context.Background(), "vacuum")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduler_RunIndexRepair_NilIndexer(t *testing.T) {
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil)
	n, err := scheduler.runIndexRepair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{}
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), store, indexer)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDIndexRepair,
		Name:     "Index Repair",
		Schedule: "@daily",
		NextRun:  schedulerEpoch.Add(-time.Minute),
		Enabled:  true,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:      "disabled",
		NextRun: schedulerEpoch.Add(-time.Minute),
		Enabled: false,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, int32(1), indexer.rebuildCalls.Load())
	task, _ := store.GetTask(ctx, domain.TaskIDIndexRepair)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), task.NextRun)
	assert.Empty(t, store.history("disabled"))
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(domain.DefaultSchedulerConfig(), store, nil)

	scheduler.runTask(context.Background(), &domain.ScheduledTask{ID: "unknown-task", Enabled: true})
	scheduler.wg.Wait()

	history := store.history("unknown-task")
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Contains(t, history[0].Error, "unknown task ID")
}
