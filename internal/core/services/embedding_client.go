package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// Ensure EmbeddingClient implements the interface.
var _ driven.EmbeddingClient = (*EmbeddingClient)(nil)

// EmbeddingClient turns datapoints into embedding points and writes them
// to the vector index. It holds no state between calls.
type EmbeddingClient struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewEmbeddingClient creates an embedding client.
func NewEmbeddingClient(embedder driven.EmbeddingService, index driven.VectorIndex) *EmbeddingClient {
	return &EmbeddingClient{
		embedder: embedder,
		index:    index,
	}
}

// Index embeds indexColumn of every datapoint and upserts the resulting
// points. A datapoint whose field is missing or fails to embed is skipped;
// the remaining points are still written and the skipped ones are reported
// as a joined error.
func (c *EmbeddingClient) Index(
	ctx context.Context,
	namespace string,
	datapoints []domain.Datapoint,
	indexColumn string,
) error {
	if err := c.ready(); err != nil {
		return err
	}
	if len(datapoints) == 0 {
		return nil
	}

	var failures []error
	texts := make([]string, 0, len(datapoints))
	embeddable := make([]domain.Datapoint, 0, len(datapoints))

	for _, dp := range datapoints {
		value, err := domain.ResolveField(dp, indexColumn)
		if err != nil {
			failures = append(failures, fmt.Errorf("datapoint %s: %w", dp.ID, err))
			continue
		}
		text, err := domain.FieldText(value)
		if err != nil {
			failures = append(failures, fmt.Errorf("datapoint %s: %w", dp.ID, err))
			continue
		}
		texts = append(texts, text)
		embeddable = append(embeddable, dp)
	}

	vectors, embedFailures := c.embedAll(ctx, embeddable, texts)
	failures = append(failures, embedFailures...)

	points := make([]domain.EmbeddingPoint, 0, len(embeddable))
	for i, dp := range embeddable {
		if vectors[i] == nil {
			continue
		}
		points = append(points, domain.EmbeddingPoint{
			ID:      dp.ID,
			Vector:  vectors[i],
			Payload: domain.NewPointPayload(dp),
		})
	}

	if len(points) > 0 {
		if err := c.index.Upsert(ctx, namespace, points); err != nil {
			return fmt.Errorf("%w: upsert %d points: %w", domain.ErrUpstream, len(points), err)
		}
	}

	if len(failures) > 0 {
		logger.Debug("Indexed %d of %d datapoints on %q", len(points), len(datapoints), indexColumn)
		return fmt.Errorf("%d of %d datapoints not indexed: %w",
			len(failures), len(datapoints), errors.Join(failures...))
	}
	return nil
}

// embedAll embeds texts in one batch request. When the batch request fails
// each text is embedded on its own so that one bad input does not sink the
// rest. A nil vector marks a failed datapoint.
func (c *EmbeddingClient) embedAll(
	ctx context.Context,
	datapoints []domain.Datapoint,
	texts []string,
) ([][]float32, []error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, nil
	}
	if err != nil {
		logger.Debug("Batch embedding failed, retrying per datapoint: %v", err)
	}
	if ctx.Err() != nil {
		return make([][]float32, len(texts)), []error{fmt.Errorf("%w: embed: %w", domain.ErrUpstream, ctx.Err())}
	}

	vectors = make([][]float32, len(texts))
	var failures []error
	for i, text := range texts {
		vec, err := c.embedder.Embed(ctx, text)
		if err != nil {
			failures = append(failures, fmt.Errorf("%w: datapoint %s: embed: %w",
				domain.ErrUpstream, datapoints[i].ID, err))
			continue
		}
		vectors[i] = vec
	}
	return vectors, failures
}

// Delete removes every point matching any of the filters. An empty
// filter list never reaches the index.
func (c *EmbeddingClient) Delete(ctx context.Context, namespace string, filters []domain.Filter) error {
	if len(filters) == 0 {
		return nil
	}
	if c.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if err := c.index.Delete(ctx, namespace, filters); err != nil {
		return fmt.Errorf("%w: delete %d filters: %w", domain.ErrUpstream, len(filters), err)
	}
	return nil
}

// Search embeds the query and returns the k nearest points matching filter.
func (c *EmbeddingClient) Search(
	ctx context.Context,
	namespace, query string,
	k int,
	filter domain.Filter,
) ([]domain.VectorHit, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrUpstream, err)
	}

	hits, err := c.index.Search(ctx, namespace, vec, k, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrUpstream, err)
	}
	return hits, nil
}

func (c *EmbeddingClient) ready() error {
	if c.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if c.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	return nil
}
