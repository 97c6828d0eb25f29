package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// Ensure DatapointService implements the interface.
var _ driving.DatapointService = (*DatapointService)(nil)

// defaultSearchLimit is used when a search asks for zero results.
const defaultSearchLimit = 10

// DatapointService stores datapoints and mirrors them into the vector index
// on the dataset's indexed field.
type DatapointService struct {
	store   driven.DatasetStore
	client  driven.EmbeddingClient
	indexer *BatchIndexer
	parser  driven.FileParser
	locks   *DatasetLocks
}

// NewDatapointService creates a datapoint service. The parser is only
// needed for Upload. Locks must be the set shared with the IndexService so
// that writes never embed on an indexed_on a re-index is replacing.
func NewDatapointService(
	store driven.DatasetStore,
	client driven.EmbeddingClient,
	indexer *BatchIndexer,
	parser driven.FileParser,
	locks *DatasetLocks,
) *DatapointService {
	return &DatapointService{
		store:   store,
		client:  client,
		indexer: indexer,
		parser:  parser,
		locks:   locks,
	}
}

// Create parses raw values, stores the accepted ones and indexes them if
// the dataset is indexed. When nothing is accepted the store is not touched.
func (s *DatapointService) Create(
	ctx context.Context,
	projectID, datasetID string,
	raws []any,
) (*domain.IngestResult, error) {
	if err := s.locks.RLock(ctx, datasetID); err != nil {
		return nil, err
	}
	defer s.locks.RUnlock(datasetID)

	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}
	return s.ingest(ctx, projectID, dataset, raws)
}

// Upload decodes a file and ingests its records.
func (s *DatapointService) Upload(
	ctx context.Context,
	projectID, datasetID, filename string,
	content []byte,
) (*domain.IngestResult, error) {
	if err := s.locks.RLock(ctx, datasetID); err != nil {
		return nil, err
	}
	defer s.locks.RUnlock(datasetID)

	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}
	if s.parser == nil {
		return nil, fmt.Errorf("%w: no file parser configured", domain.ErrUnsupportedType)
	}

	raws, err := s.parser.Parse(filename, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	logger.Debug("Parsed %d records from %s", len(raws), filename)

	return s.ingest(ctx, projectID, dataset, raws)
}

func (s *DatapointService) ingest(
	ctx context.Context,
	projectID string,
	dataset *domain.Dataset,
	raws []any,
) (*domain.IngestResult, error) {
	result := &domain.IngestResult{Parse: domain.ParseDatapoints(dataset.ID, raws)}
	result.Datapoints = result.Parse.Datapoints()

	if rejected := result.Parse.Rejected(); len(rejected) > 0 {
		logger.Warn("Rejected %d of %d records for %s", len(rejected), len(raws), dataset.ID)
	}
	if len(result.Datapoints) == 0 {
		return result, nil
	}

	if err := s.store.InsertDatapoints(ctx, result.Datapoints); err != nil {
		return nil, storeErr("insert datapoints", err)
	}

	report, err := s.indexer.IndexNewPoints(ctx, result.Datapoints, projectID, dataset.IndexedOn)
	if dataset.IsIndexed() {
		result.Index = report
	}
	if err != nil {
		return result, fmt.Errorf("index new datapoints: %w", err)
	}

	logger.Info("Stored %d datapoints in %s", len(result.Datapoints), dataset.ID)
	return result, nil
}

// Update replaces a datapoint's data, target and metadata. When the
// dataset is indexed the old point is deleted by id before the new
// content is indexed.
func (s *DatapointService) Update(
	ctx context.Context,
	projectID, datasetID, id string,
	raw any,
) (*domain.Datapoint, error) {
	if err := s.locks.RLock(ctx, datasetID); err != nil {
		return nil, err
	}
	defer s.locks.RUnlock(datasetID)

	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}

	parsed, err := domain.TryFromRaw(datasetID, raw)
	if err != nil {
		return nil, err
	}
	if obj, ok := raw.(map[string]any); ok {
		if rawID, ok := obj["id"].(string); ok && rawID != id {
			return nil, fmt.Errorf("%w: id %s does not match %s", domain.ErrInvalidInput, rawID, id)
		}
	}
	parsed.ID = id

	full, err := s.store.UpdateDatapoint(ctx, *parsed)
	if err != nil {
		return nil, storeErr("update datapoint", err)
	}
	updated := full.ToDatapoint()

	if !dataset.IsIndexed() {
		return &updated, nil
	}

	if err := s.client.Delete(ctx, projectID, []domain.Filter{domain.DatapointFilter(id)}); err != nil {
		return nil, fmt.Errorf("delete old embedding: %w", err)
	}
	if _, err := s.indexer.IndexNewPoints(ctx, []domain.Datapoint{updated}, projectID, dataset.IndexedOn); err != nil {
		return nil, fmt.Errorf("index updated datapoint: %w", err)
	}

	return &updated, nil
}

// List returns datapoints of a dataset in insertion order.
func (s *DatapointService) List(
	ctx context.Context,
	projectID, datasetID string,
	limit, offset int,
) ([]domain.FullDatapoint, error) {
	if _, err := s.store.GetDataset(ctx, projectID, datasetID); err != nil {
		return nil, storeErr("get dataset", err)
	}
	datapoints, err := s.store.GetFullDatapoints(ctx, datasetID, limit, offset)
	if err != nil {
		return nil, storeErr("list datapoints", err)
	}
	return datapoints, nil
}

// Search returns the datapoints of an indexed dataset nearest to query.
func (s *DatapointService) Search(
	ctx context.Context,
	projectID, datasetID, query string,
	k int,
) ([]domain.VectorHit, error) {
	dataset, err := s.store.GetDataset(ctx, projectID, datasetID)
	if err != nil {
		return nil, storeErr("get dataset", err)
	}
	if !dataset.IsIndexed() {
		return nil, fmt.Errorf("%w: dataset %s is not indexed", domain.ErrInvalidInput, datasetID)
	}
	if k <= 0 {
		k = defaultSearchLimit
	}
	return s.client.Search(ctx, projectID, query, k, domain.DatasetFilter(datasetID))
}
