// Package messages defines Bubbletea message types for the progress view.
package messages

import (
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// StatusPolled carries a fresh snapshot of a dataset's re-index status.
type StatusPolled struct {
	Status *domain.ReindexStatus
	Err    error
}

// OperationFinished is sent when the tracked operation returns.
type OperationFinished struct {
	Dataset *domain.Dataset
	Err     error
}
