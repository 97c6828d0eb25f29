package domain

import (
	"fmt"
	"time"
)

// DefaultBatchSize is the number of datapoints sent per embedding upsert.
const DefaultBatchSize = 50

// BatchOutcome records the result of one upsert batch.
type BatchOutcome struct {
	// Batch is the zero-based batch number.
	Batch int

	// Start is the offset of the first datapoint in the batch.
	Start int

	// End is the offset one past the last datapoint in the batch.
	End int

	// Err is nil when the batch was fully indexed.
	Err error
}

// Size returns the number of datapoints in the batch.
func (o BatchOutcome) Size() int {
	return o.End - o.Start
}

// IndexReport describes an indexing pass, one outcome per attempted batch.
// Batches after the first failure are not attempted.
type IndexReport struct {
	// BatchSize is the batch size used for the pass.
	BatchSize int

	// Total is the number of datapoints submitted.
	Total int

	// TotalBatches is the number of batches the pass was split into.
	TotalBatches int

	// Batches holds the attempted batches in order.
	Batches []BatchOutcome
}

// Indexed returns the number of datapoints in successful batches.
func (r *IndexReport) Indexed() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, b := range r.Batches {
		if b.Err == nil {
			n += b.Size()
		}
	}
	return n
}

// Failed returns the first failed batch, if any.
func (r *IndexReport) Failed() (BatchOutcome, bool) {
	if r == nil {
		return BatchOutcome{}, false
	}
	for _, b := range r.Batches {
		if b.Err != nil {
			return b, true
		}
	}
	return BatchOutcome{}, false
}

// ResumeOffset returns the datapoint offset to restart from after a failure.
// It equals Total when every batch succeeded.
func (r *IndexReport) ResumeOffset() int {
	if r == nil {
		return 0
	}
	if failed, ok := r.Failed(); ok {
		return failed.Start
	}
	return r.Total
}

// BatchError reports which batch of an indexing pass failed.
type BatchError struct {
	// Batch is the zero-based number of the failed batch.
	Batch int

	// Total is the number of batches in the pass.
	Total int

	// Start and End bound the datapoint offsets of the failed batch.
	Start int
	End   int

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d of %d (datapoints %d-%d): %v", e.Batch+1, e.Total, e.Start, e.End-1, e.Err)
}

// Unwrap returns the underlying failure.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// ReindexState is a phase of the re-index state machine.
type ReindexState string

// Re-index phases in execution order.
const (
	// ReindexIdle means no re-index is running for the dataset.
	ReindexIdle ReindexState = "idle"

	// ReindexUnchanged means the requested column equals the current one.
	ReindexUnchanged ReindexState = "unchanged"

	// ReindexLoading means the dataset's datapoints are being read.
	ReindexLoading ReindexState = "loading"

	// ReindexDeletingOld means embeddings of the previous column are being removed.
	ReindexDeletingOld ReindexState = "deleting_old"

	// ReindexIndexing means the new column is being embedded batch by batch.
	ReindexIndexing ReindexState = "indexing"

	// ReindexCommitting means the new column is being persisted on the dataset.
	ReindexCommitting ReindexState = "committing"

	// ReindexDone means the re-index committed.
	ReindexDone ReindexState = "done"

	// ReindexFailed means the re-index aborted without committing.
	ReindexFailed ReindexState = "failed"
)

// String returns the string representation.
func (s ReindexState) String() string {
	return string(s)
}

// IsTerminal returns true if the state ends a re-index.
func (s ReindexState) IsTerminal() bool {
	switch s {
	case ReindexUnchanged, ReindexDone, ReindexFailed:
		return true
	default:
		return false
	}
}

// ReindexStatus is a snapshot of a dataset's index lifecycle.
type ReindexStatus struct {
	// DatasetID identifies the dataset.
	DatasetID string

	// State is the current phase.
	State ReindexState

	// From and To are the previous and requested index columns.
	From *string
	To   *string

	// BatchesDone and BatchesTotal track the indexing phase.
	BatchesDone  int
	BatchesTotal int

	// StartedAt is when the operation began.
	StartedAt time.Time

	// Error holds the failure message when State is ReindexFailed.
	Error string
}

// Progress returns the fraction of batches indexed, between 0 and 1.
func (s ReindexStatus) Progress() float64 {
	if s.State == ReindexDone || s.State == ReindexUnchanged {
		return 1
	}
	if s.BatchesTotal == 0 {
		return 0
	}
	return float64(s.BatchesDone) / float64(s.BatchesTotal)
}

// IngestResult describes a create or upload: what parsed, what was
// stored, and how indexing went.
type IngestResult struct {
	// Parse holds one result per submitted raw value.
	Parse ParseReport

	// Datapoints are the accepted and stored datapoints.
	Datapoints []Datapoint

	// Index is the indexing report. Nil when the dataset is not indexed.
	Index *IndexReport
}
