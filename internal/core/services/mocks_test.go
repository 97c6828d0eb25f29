package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

const testProject = "proj-1"

// --- recordingClient ---

type indexCall struct {
	namespace string
	ids       []string
	column    string
}

type deleteCall struct {
	namespace string
	filters   []domain.Filter
}

// recordingClient implements driven.EmbeddingClient and records every call
// in order. failIndexOn makes the n-th Index call (1-based) fail.
type recordingClient struct {
	mu          sync.Mutex
	calls       []string // "index" / "delete" / "search" in call order
	indexCalls  []indexCall
	deleteCalls []deleteCall
	failIndexOn int
	indexErr    error
	deleteErr   error
	searchHits  []domain.VectorHit
	onIndex     func()
}

var _ driven.EmbeddingClient = (*recordingClient)(nil)

func (c *recordingClient) Index(_ context.Context, namespace string, dps []domain.Datapoint, column string) error {
	c.mu.Lock()
	ids := make([]string, len(dps))
	for i := range dps {
		ids[i] = dps[i].ID
	}
	c.calls = append(c.calls, "index")
	c.indexCalls = append(c.indexCalls, indexCall{namespace: namespace, ids: ids, column: column})
	n := len(c.indexCalls)
	hook := c.onIndex
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	if c.failIndexOn > 0 && n == c.failIndexOn {
		if c.indexErr != nil {
			return c.indexErr
		}
		return fmt.Errorf("%w: timeout", domain.ErrUpstream)
	}
	return nil
}

func (c *recordingClient) Delete(_ context.Context, namespace string, filters []domain.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "delete")
	c.deleteCalls = append(c.deleteCalls, deleteCall{namespace: namespace, filters: filters})
	return c.deleteErr
}

func (c *recordingClient) Search(
	_ context.Context,
	_ string,
	_ string,
	_ int,
	_ domain.Filter,
) ([]domain.VectorHit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "search")
	return c.searchHits, nil
}

func (c *recordingClient) indexedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, call := range c.indexCalls {
		ids = append(ids, call.ids...)
	}
	return ids
}

func (c *recordingClient) batchSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sizes := make([]int, len(c.indexCalls))
	for i, call := range c.indexCalls {
		sizes[i] = len(call.ids)
	}
	return sizes
}

// --- fakeEmbedder ---

// fakeEmbedder implements driven.EmbeddingService with a tiny
// deterministic embedding: [len(text), count of 'a'].
type fakeEmbedder struct {
	mu         sync.Mutex
	batchErr   error
	failTexts  map[string]bool
	batchCalls int
	embedCalls int
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embedCalls++
	e.mu.Unlock()
	if e.failTexts[text] {
		return nil, fmt.Errorf("cannot embed %q", text)
	}
	return []float32{float32(len(text)), float32(strings.Count(text, "a"))}, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if e.failTexts[text] {
			return nil, fmt.Errorf("batch rejected %q", text)
		}
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return 2 }
func (e *fakeEmbedder) ModelName() string { return "fake" }
func (e *fakeEmbedder) Ping(context.Context) error { return nil }
func (e *fakeEmbedder) Close() error { return nil }

// --- failingStore ---

// failingStore wraps the memory store and fails selected operations.
type failingStore struct {
	*memory.DatasetStore
	failCommit error
	failLoad   error
	failInsert error
}

func (s *failingStore) UpdateIndexColumn(ctx context.Context, datasetID string, column *string) (*domain.Dataset, error) {
	if s.failCommit != nil {
		return nil, s.failCommit
	}
	return s.DatasetStore.UpdateIndexColumn(ctx, datasetID, column)
}

func (s *failingStore) GetFullDatapoints(ctx context.Context, datasetID string, limit, offset int) ([]domain.FullDatapoint, error) {
	if s.failLoad != nil {
		return nil, s.failLoad
	}
	return s.DatasetStore.GetFullDatapoints(ctx, datasetID, limit, offset)
}

func (s *failingStore) InsertDatapoints(ctx context.Context, dps []domain.Datapoint) error {
	if s.failInsert != nil {
		return s.failInsert
	}
	return s.DatasetStore.InsertDatapoints(ctx, dps)
}

// --- fixtures ---

func strPtr(s string) *string { return &s }

// seedDataset stores a dataset with n datapoints whose data is {"text": "row <i>"}.
func seedDataset(t *testing.T, store driven.DatasetStore, indexedOn *string, n int) (*domain.Dataset, []domain.Datapoint) {
	t.Helper()
	ctx := context.Background()

	ds := &domain.Dataset{ID: fmt.Sprintf("ds-%d-%s", n, t.Name()), ProjectID: testProject, Name: "seed", IndexedOn: indexedOn}
	require.NoError(t, store.SaveDataset(ctx, ds))

	raws := make([]any, n)
	for i := range raws {
		raws[i] = map[string]any{
			"data":     map[string]any{"text": fmt.Sprintf("row %d", i), "label": fmt.Sprintf("l%d", i)},
			"metadata": map[string]any{"split": "train"},
		}
	}
	dps := domain.ParseDatapoints(ds.ID, raws).Datapoints()
	require.Len(t, dps, n)
	if n > 0 {
		require.NoError(t, store.InsertDatapoints(ctx, dps))
	}
	return ds, dps
}

func ids(dps []domain.Datapoint) []string {
	out := make([]string, len(dps))
	for i := range dps {
		out[i] = dps[i].ID
	}
	return out
}
