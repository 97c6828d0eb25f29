package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func point(id, datasetID string, vec ...float32) domain.EmbeddingPoint {
	return domain.EmbeddingPoint{
		ID:      id,
		Vector:  vec,
		Payload: map[string]any{"id": id, "datasource_id": datasetID},
	}
}

func TestIndex_UpsertOverwrites(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{point("a", "ds", 1, 0)}))
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{point("a", "ds", 0, 1)}))

	n, err := idx.Count(ctx, "proj", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search(ctx, "proj", []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestIndex_DeleteMatchesAnyFilter(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{
		point("a", "ds-1", 1), point("b", "ds-1", 1), point("c", "ds-2", 1),
	}))

	filters := []domain.Filter{domain.DatapointFilter("a"), domain.ScopedDatapointFilter("c", "ds-2")}
	require.NoError(t, idx.Delete(ctx, "proj", filters))
	require.NoError(t, idx.Delete(ctx, "proj", filters))

	n, err := idx.Count(ctx, "proj", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = idx.Count(ctx, "proj", domain.DatapointFilter("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIndex_DeleteEmptyFiltersIsNoop(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{point("a", "ds-1", 1)}))

	require.NoError(t, idx.Delete(ctx, "proj", nil))
	require.NoError(t, idx.Delete(ctx, "proj", []domain.Filter{{}}))

	n, _ := idx.Count(ctx, "proj", nil)
	assert.Equal(t, 1, n)
}

func TestIndex_FiltersMatchStringsOnly(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	p := point("a", "ds-1", 1)
	p.Payload["split"] = "train"
	p.Payload["fold"] = float64(3)
	p.Payload["has space"] = "x"
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{p}))

	count := func(f domain.Filter) int {
		n, err := idx.Count(ctx, "proj", f)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, count(domain.Filter{"split": "train", "datasource_id": "ds-1"}))
	assert.Equal(t, 0, count(domain.Filter{"split": "test"}))
	assert.Equal(t, 0, count(domain.Filter{"fold": "3"}))
	assert.Equal(t, 0, count(domain.Filter{"missing": "x"}))
	assert.Equal(t, 1, count(domain.Filter{"has space": "x"}))
}

func TestIndex_NamespacesAreIsolated(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "p1", []domain.EmbeddingPoint{point("a", "ds", 1)}))
	require.NoError(t, idx.Upsert(ctx, "p2", []domain.EmbeddingPoint{point("a", "ds", 1)}))

	require.NoError(t, idx.Delete(ctx, "p1", []domain.Filter{domain.DatasetFilter("ds")}))

	n1, _ := idx.Count(ctx, "p1", nil)
	n2, _ := idx.Count(ctx, "p2", nil)
	assert.Equal(t, 0, n1)
	assert.Equal(t, 1, n2)
}

func TestIndex_SearchRanksAndFilters(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{
		point("near", "ds-1", 1, 0.1),
		point("far", "ds-1", 0, 1),
		point("other", "ds-2", 1, 0),
	}))

	hits, err := idx.Search(ctx, "proj", []float32{1, 0}, 5, domain.DatasetFilter("ds-1"))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ID)
	assert.Equal(t, "far", hits[1].ID)
	assert.Equal(t, "ds-1", hits[0].Payload["datasource_id"])
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{point("a", "ds", 1, 2)}))
	require.NoError(t, idx.Close())

	idx, err = Open(dir)
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.Count(ctx, "proj", domain.DatasetFilter("ds"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIndex_Closed(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	err := idx.Upsert(context.Background(), "proj", []domain.EmbeddingPoint{point("a", "ds", 1)})
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	_, err = idx.Search(context.Background(), "proj", []float32{1}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	err = idx.Delete(context.Background(), "proj", []domain.Filter{domain.DatasetFilter("ds")})
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	_, err = idx.Count(context.Background(), "proj", nil)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestIndex_DeleteManyFilters(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	const n = 1200
	points := make([]domain.EmbeddingPoint, n)
	filters := make([]domain.Filter, n)
	for i := range points {
		id := fmt.Sprintf("dp-%04d", i)
		points[i] = point(id, "ds", 1, 0)
		filters[i] = domain.DatapointFilter(id)
	}
	require.NoError(t, idx.Upsert(ctx, "proj", points))
	require.NoError(t, idx.Upsert(ctx, "proj", []domain.EmbeddingPoint{point("keep", "other", 1, 0)}))

	require.NoError(t, idx.Delete(ctx, "proj", filters))

	left, err := idx.Count(ctx, "proj", domain.DatasetFilter("ds"))
	require.NoError(t, err)
	assert.Zero(t, left)
	left, err = idx.Count(ctx, "proj", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, left)
}

func TestIndex_DeleteManyScopedFilters(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	const n = 1001
	points := make([]domain.EmbeddingPoint, n)
	filters := make([]domain.Filter, 0, n+1)
	for i := range points {
		id := fmt.Sprintf("dp-%04d", i)
		points[i] = point(id, "ds", 0, 1)
		filters = append(filters, domain.ScopedDatapointFilter(id, "ds"))
	}
	filters = append(filters, domain.Filter{})
	require.NoError(t, idx.Upsert(ctx, "proj", points))

	require.NoError(t, idx.Delete(ctx, "proj", filters))

	left, err := idx.Count(ctx, "proj", nil)
	require.NoError(t, err)
	assert.Zero(t, left)
}
