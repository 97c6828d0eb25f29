package domain

// Payload keys every embedding point carries.
const (
	// PayloadKeyID holds the datapoint ID.
	PayloadKeyID = "id"

	// PayloadKeyDatasource holds the owning dataset ID.
	PayloadKeyDatasource = "datasource_id"
)

// EmbeddingPoint is a vector-index entry keyed by datapoint ID.
type EmbeddingPoint struct {
	// ID is the datapoint ID. Upserting the same ID overwrites the point.
	ID string

	// Vector is the embedding of the indexed field.
	Vector []float32

	// Payload is the filterable metadata: datasource_id, the datapoint
	// metadata, and id.
	Payload map[string]any
}

// NewPointPayload builds the payload for a datapoint. Metadata keys are
// copied first so that id and datasource_id always win.
func NewPointPayload(dp Datapoint) map[string]any {
	payload := make(map[string]any, len(dp.Metadata)+2)
	for k, v := range dp.Metadata {
		payload[k] = v
	}
	payload[PayloadKeyDatasource] = dp.DatasetID
	payload[PayloadKeyID] = dp.ID
	return payload
}

// Filter is an exact-match payload filter. A point matches when every key
// is present in its payload with the given value.
type Filter map[string]string

// Matches reports whether the payload satisfies every key of the filter.
// An empty filter matches nothing.
func (f Filter) Matches(payload map[string]any) bool {
	if len(f) == 0 {
		return false
	}
	for key, want := range f {
		got, ok := payload[key]
		if !ok {
			return false
		}
		s, ok := got.(string)
		if !ok || s != want {
			return false
		}
	}
	return true
}

// MatchesAny reports whether the payload satisfies at least one filter.
func MatchesAny(filters []Filter, payload map[string]any) bool {
	for _, f := range filters {
		if f.Matches(payload) {
			return true
		}
	}
	return false
}

// DatasetFilter selects every point of a dataset.
func DatasetFilter(datasetID string) Filter {
	return Filter{PayloadKeyDatasource: datasetID}
}

// DatapointFilter selects a single point by ID.
func DatapointFilter(id string) Filter {
	return Filter{PayloadKeyID: id}
}

// ScopedDatapointFilter selects a single point by ID within a dataset.
func ScopedDatapointFilter(id, datasetID string) Filter {
	return Filter{PayloadKeyID: id, PayloadKeyDatasource: datasetID}
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ID is the matched datapoint ID.
	ID string

	// Similarity is the cosine similarity score.
	Similarity float64

	// Payload is the stored point payload.
	Payload map[string]any
}
