package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

func TestDatapointCreate_FromArgument(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "datapoint", "create", "ds-1",
		`[{"data":{"text":"hi"}},{"target":"x"}]`)

	require.NoError(t, err)
	assert.Len(t, ts.datapoint.gotRaws, 2)
	assert.Contains(t, out, "Stored 1 datapoints, rejected 1")
	assert.Contains(t, out, "record 2")
	assert.Contains(t, out, "missing data field")
	assert.Contains(t, out, "not indexed")
}

func TestDatapointCreate_SingleObjectFromStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, strings.NewReader(`{"data":"one"}`), "datapoint", "create", "ds-1")

	require.NoError(t, err)
	require.Len(t, ts.datapoint.gotRaws, 1)
	assert.Equal(t, map[string]any{"data": "one"}, ts.datapoint.gotRaws[0])
}

func TestDatapointCreate_InvalidJSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "datapoint", "create", "ds-1", "{not json")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDatapointCreate_IndexFailureShowsResumeOffset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	batchErr := &domain.BatchError{Batch: 1, Total: 2, Start: 50, End: 60, Err: errMock}
	ts.datapoint.result = &domain.IngestResult{
		Datapoints: make([]domain.Datapoint, 60),
		Index: &domain.IndexReport{
			BatchSize:    50,
			Total:        60,
			TotalBatches: 2,
			Batches: []domain.BatchOutcome{
				{Batch: 0, Start: 0, End: 50},
				{Batch: 1, Start: 50, End: 60, Err: errMock},
			},
		},
	}
	ts.datapoint.err = batchErr

	out, err := execute(t, nil, "datapoint", "create", "ds-1", `[]`)

	assert.ErrorAs(t, err, &batchErr)
	assert.Contains(t, out, "Indexed 50 of 60 datapoints")
	assert.Contains(t, out, "Batch 2 failed")
	assert.Contains(t, out, "offset 50")
}

func TestDatapointUpload(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.datapoint.result = &domain.IngestResult{Datapoints: make([]domain.Datapoint, 2)}
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"data\":1}\n{\"data\":2}\n"), 0o644))

	out, err := execute(t, nil, "datapoint", "upload", "ds-1", path)

	require.NoError(t, err)
	assert.Equal(t, "rows.jsonl", ts.datapoint.gotFilename)
	assert.Contains(t, ts.datapoint.gotContent, `{"data":2}`)
	assert.Contains(t, out, "Stored 2 datapoints")
}

func TestDatapointUpload_UnsupportedType(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "datapoint", "upload", "ds-1", "notes.docx")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Empty(t, ts.datapoint.gotFilename)
}

func TestDatapointUpload_MissingFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "datapoint", "upload", "ds-1", filepath.Join(t.TempDir(), "none.json"))

	assert.ErrorContains(t, err, "failed to read")
}

func TestDatapointUpdate(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "datapoint", "update", "ds-1", "dp-1", `{"data":{"text":"new"}}`)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": map[string]any{"text": "new"}}, ts.datapoint.gotRaw)
	assert.Contains(t, out, "Updated datapoint dp-1")
}

func TestDatapointDelete_Single(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "datapoint", "delete", "ds-1", "dp-1")

	require.NoError(t, err)
	assert.True(t, ts.deletion.single)
	assert.Contains(t, out, "Deleted datapoint dp-1")
}

func TestDatapointDelete_Many(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "datapoint", "delete", "ds-1", "a", "b", "c")

	require.NoError(t, err)
	assert.False(t, ts.deletion.single)
	assert.Equal(t, []string{"a", "b", "c"}, ts.deletion.gotIDs)
	assert.Contains(t, out, "Deleted 2 of 3 datapoints")
}

func TestDatapointDelete_RequiresID(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, nil, "datapoint", "delete", "ds-1")

	assert.ErrorContains(t, err, "requires at least 2 arg(s)")
}

func TestDatapointDeleteAll(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "datapoint", "delete-all", "ds-1")

	require.NoError(t, err)
	assert.True(t, ts.deletion.all)
	assert.Contains(t, out, "Deleted 3 datapoints")
}

func TestDatapointList(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.datapoint.datapoints = []domain.FullDatapoint{
		{ID: "dp-1", Data: map[string]any{"text": "hello"}},
	}

	out, err := execute(t, nil, "datapoint", "list", "ds-1", "-n", "5", "--offset", "10")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.datapoint.gotLimit)
	assert.Equal(t, 10, ts.datapoint.gotOffset)
	assert.Contains(t, out, `dp-1  {"text":"hello"}`)
}

func TestDatapointList_DefaultLimit(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "datapoint", "list", "ds-1")

	require.NoError(t, err)
	assert.Equal(t, 20, ts.datapoint.gotLimit)
	assert.Contains(t, out, "No datapoints found.")
}

func TestDatapointSearch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.datapoint.hits = []domain.VectorHit{{
		ID:         "dp-1",
		Similarity: 0.9123,
		Payload: map[string]any{
			domain.PayloadKeyID:         "dp-1",
			domain.PayloadKeyDatasource: "ds-1",
			"split":                     "train",
		},
	}}

	out, err := execute(t, nil, "datapoint", "search", "ds-1", "refund policy", "-n", "3")

	require.NoError(t, err)
	assert.Equal(t, "refund policy", ts.datapoint.gotQuery)
	assert.Equal(t, 3, ts.datapoint.gotLimit)
	assert.Contains(t, out, "[1] dp-1 (0.912)")
	assert.Contains(t, out, "split=train")
	assert.NotContains(t, out, "datasource_id=")
}

func TestDatapointSearch_NotIndexed(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.datapoint.err = domain.ErrInvalidInput

	_, err := execute(t, nil, "datapoint", "search", "ds-2", "q")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDatapointWatch_ScanThenStop(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.datapoint.result = &domain.IngestResult{Datapoints: make([]domain.Datapoint, 1)}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[{"data":1}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte(`x`), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out strings.Builder
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"datapoint", "watch", "ds-1", "file://" + dir, "--scan"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	assert.Equal(t, "a.json", ts.datapoint.gotFilename)
	assert.Contains(t, out.String(), "Uploaded 1 existing files")
	assert.Contains(t, out.String(), "Watching "+dir)
}
