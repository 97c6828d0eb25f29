package driving

import (
	"context"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// DatapointService ingests datapoints and keeps their embeddings current.
type DatapointService interface {
	// Create parses, stores and indexes raw datapoint values.
	// Rejected values are reported in the result, not as an error.
	Create(ctx context.Context, projectID, datasetID string, raws []any) (*domain.IngestResult, error)

	// Upload parses a file and ingests its records like Create.
	Upload(ctx context.Context, projectID, datasetID, filename string, content []byte) (*domain.IngestResult, error)

	// Update replaces a datapoint's content and re-embeds it.
	Update(ctx context.Context, projectID, datasetID, id string, raw any) (*domain.Datapoint, error)

	// List returns datapoints of a dataset. A limit of zero returns all.
	List(ctx context.Context, projectID, datasetID string, limit, offset int) ([]domain.FullDatapoint, error)

	// Search returns the datapoints of a dataset nearest to the query text.
	Search(ctx context.Context, projectID, datasetID, query string, k int) ([]domain.VectorHit, error)
}
