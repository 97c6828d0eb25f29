package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// BatchIndexer splits datapoints into fixed-size batches and indexes them
// one after another. Batches already written stay written when a later
// one fails.
type BatchIndexer struct {
	client    driven.EmbeddingClient
	batchSize int
}

// NewBatchIndexer creates a batch indexer. A batch size of zero or less
// uses domain.DefaultBatchSize.
func NewBatchIndexer(client driven.EmbeddingClient, batchSize int) *BatchIndexer {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &BatchIndexer{
		client:    client,
		batchSize: batchSize,
	}
}

// BatchSize returns the configured batch size.
func (b *BatchIndexer) BatchSize() int {
	return b.batchSize
}

// IndexNewPoints indexes datapoints on indexColumn. A nil column means the
// dataset is not indexed and nothing happens.
//
// On failure the report lists every attempted batch and the returned
// *domain.BatchError names the failed one.
func (b *BatchIndexer) IndexNewPoints(
	ctx context.Context,
	datapoints []domain.Datapoint,
	namespace string,
	indexColumn *string,
) (*domain.IndexReport, error) {
	return b.index(ctx, datapoints, namespace, indexColumn, nil)
}

// index runs the batches, calling onBatch after each successful one.
func (b *BatchIndexer) index(
	ctx context.Context,
	datapoints []domain.Datapoint,
	namespace string,
	indexColumn *string,
	onBatch func(outcome domain.BatchOutcome, totalBatches int),
) (*domain.IndexReport, error) {
	report := &domain.IndexReport{BatchSize: b.batchSize}
	if indexColumn == nil {
		return report, nil
	}

	total := len(datapoints)
	report.Total = total
	report.TotalBatches = (total + b.batchSize - 1) / b.batchSize

	for batch, start := 0, 0; start < total; batch, start = batch+1, start+b.batchSize {
		end := min(start+b.batchSize, total)

		if err := ctx.Err(); err != nil {
			return report, &domain.BatchError{
				Batch: batch, Total: report.TotalBatches, Start: start, End: end,
				Err: fmt.Errorf("cancelled: %w", err),
			}
		}

		logger.Debug("Indexing batch %d of %d (%d datapoints)", batch+1, report.TotalBatches, end-start)
		err := b.client.Index(ctx, namespace, datapoints[start:end], *indexColumn)

		outcome := domain.BatchOutcome{Batch: batch, Start: start, End: end, Err: err}
		report.Batches = append(report.Batches, outcome)

		if err != nil {
			return report, &domain.BatchError{
				Batch: batch, Total: report.TotalBatches, Start: start, End: end, Err: err,
			}
		}
		if onBatch != nil {
			onBatch(outcome, report.TotalBatches)
		}
	}

	return report, nil
}
