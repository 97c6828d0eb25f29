package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexReport_AllSucceeded(t *testing.T) {
	report := &IndexReport{
		BatchSize:    50,
		Total:        137,
		TotalBatches: 3,
		Batches: []BatchOutcome{
			{Batch: 0, Start: 0, End: 50},
			{Batch: 1, Start: 50, End: 100},
			{Batch: 2, Start: 100, End: 137},
		},
	}

	assert.Equal(t, 137, report.Indexed())
	assert.Equal(t, 137, report.ResumeOffset())
	_, failed := report.Failed()
	assert.False(t, failed)
}

func TestIndexReport_FailedBatch(t *testing.T) {
	cause := errors.New("backend down")
	report := &IndexReport{
		BatchSize:    50,
		Total:        137,
		TotalBatches: 3,
		Batches: []BatchOutcome{
			{Batch: 0, Start: 0, End: 50},
			{Batch: 1, Start: 50, End: 100, Err: cause},
		},
	}

	assert.Equal(t, 50, report.Indexed())
	assert.Equal(t, 50, report.ResumeOffset())
	failed, ok := report.Failed()
	assert.True(t, ok)
	assert.Equal(t, 1, failed.Batch)
}

func TestIndexReport_Nil(t *testing.T) {
	var report *IndexReport
	assert.Equal(t, 0, report.Indexed())
	assert.Equal(t, 0, report.ResumeOffset())
}

func TestBatchError(t *testing.T) {
	cause := errors.New("timeout")
	err := &BatchError{Batch: 2, Total: 10, Start: 100, End: 150, Err: cause}

	assert.Equal(t, "batch 3 of 10 (datapoints 100-149): timeout", err.Error())
	assert.True(t, errors.Is(err, cause))

	var batchErr *BatchError
	assert.True(t, errors.As(error(err), &batchErr))
}

func TestReindexStatus_Progress(t *testing.T) {
	assert.Equal(t, 0.0, ReindexStatus{State: ReindexIndexing}.Progress())
	assert.Equal(t, 0.5, ReindexStatus{State: ReindexIndexing, BatchesDone: 1, BatchesTotal: 2}.Progress())
	assert.Equal(t, 1.0, ReindexStatus{State: ReindexDone}.Progress())
	assert.True(t, ReindexFailed.IsTerminal())
	assert.False(t, ReindexIndexing.IsTerminal())
}

func TestSameIndexColumn(t *testing.T) {
	a, b := "data.text", "data.text"
	c := "data.other"

	assert.True(t, SameIndexColumn(nil, nil))
	assert.True(t, SameIndexColumn(&a, &b))
	assert.False(t, SameIndexColumn(&a, &c))
	assert.False(t, SameIndexColumn(nil, &a))
	assert.False(t, SameIndexColumn(&a, nil))
	assert.Nil(t, IndexColumn(""))
	assert.Equal(t, "x", *IndexColumn("x"))
}
