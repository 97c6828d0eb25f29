package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Datapoint is one labeled record within a dataset.
// It is the form handed to the embedding index.
type Datapoint struct {
	// ID is the unique identifier. Immutable once created and unique across datasets.
	ID string `json:"id"`

	// DatasetID links to the owning Dataset.
	DatasetID string `json:"datasetId"`

	// Data is the record's structured content.
	Data any `json:"data"`

	// Target is the optional expected output or label. Nil means absent.
	Target any `json:"target,omitempty"`

	// Metadata is copied into the embedding payload as filterable keys.
	Metadata map[string]any `json:"metadata"`
}

// FullDatapoint is the persisted form of a datapoint as read from the store.
type FullDatapoint struct {
	ID        string         `json:"id"`
	DatasetID string         `json:"datasetId"`
	Data      any            `json:"data"`
	Target    any            `json:"target,omitempty"`
	Metadata  map[string]any `json:"metadata"`

	// CreatedAt is when the datapoint was first stored.
	CreatedAt time.Time `json:"createdAt"`

	// IndexInBatch is the position of the datapoint within the insert that created it.
	IndexInBatch int `json:"indexInBatch"`
}

// ToDatapoint projects the persisted form to the indexable form.
// Data, target and metadata are carried over untouched.
func (f FullDatapoint) ToDatapoint() Datapoint {
	return Datapoint{
		ID:        f.ID,
		DatasetID: f.DatasetID,
		Data:      f.Data,
		Target:    f.Target,
		Metadata:  f.Metadata,
	}
}

// ProjectDatapoints converts persisted datapoints to their indexable form.
func ProjectDatapoints(full []FullDatapoint) []Datapoint {
	out := make([]Datapoint, len(full))
	for i := range full {
		out[i] = full[i].ToDatapoint()
	}
	return out
}

// Equal reports whether two datapoints share the same identity.
func (d Datapoint) Equal(other Datapoint) bool {
	return d.ID == other.ID
}

// Reasons a raw value is rejected by TryFromRaw.
var (
	errRawNotObject       = errors.New("value is not an object")
	errRawMissingData     = errors.New("missing data field")
	errRawMetadataInvalid = errors.New("metadata is not an object")
	errRawIDInvalid       = errors.New("id is not a valid uuid")
)

// TryFromRaw parses an untyped decoded JSON value into a Datapoint.
//
// The value must be an object with a "data" key. "target", "metadata"
// (an object) and "id" (a uuid) are optional; a fresh id is generated when
// none is supplied. A rejected value returns a nil datapoint and the reason,
// wrapped in ErrInvalidInput.
func TryFromRaw(datasetID string, raw any) (*Datapoint, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, errRawNotObject)
	}

	data, ok := obj["data"]
	if !ok || data == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, errRawMissingData)
	}

	metadata := map[string]any{}
	if rawMeta, ok := obj["metadata"]; ok && rawMeta != nil {
		m, ok := rawMeta.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, errRawMetadataInvalid)
		}
		metadata = m
	}

	id := uuid.New().String()
	if rawID, ok := obj["id"]; ok && rawID != nil {
		s, ok := rawID.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, errRawIDInvalid)
		}
		parsed, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, errRawIDInvalid)
		}
		id = parsed.String()
	}

	return &Datapoint{
		ID:        id,
		DatasetID: datasetID,
		Data:      data,
		Target:    obj["target"],
		Metadata:  metadata,
	}, nil
}

// ParseResult pairs one raw input with its parsed datapoint or rejection reason.
type ParseResult struct {
	// Index is the position of the input in the submitted batch.
	Index int

	// Datapoint is set when the input was accepted.
	Datapoint *Datapoint

	// Reason is set when the input was rejected.
	Reason error
}

// Accepted returns true if the input parsed into a datapoint.
func (r ParseResult) Accepted() bool {
	return r.Datapoint != nil
}

// ParseReport holds one ParseResult per submitted raw value, in input order.
type ParseReport struct {
	Results []ParseResult
}

// ParseDatapoints converts a batch of raw values, recording every rejection
// instead of failing the batch.
func ParseDatapoints(datasetID string, raws []any) ParseReport {
	report := ParseReport{Results: make([]ParseResult, len(raws))}
	for i, raw := range raws {
		dp, err := TryFromRaw(datasetID, raw)
		report.Results[i] = ParseResult{Index: i, Datapoint: dp, Reason: err}
	}
	return report
}

// Datapoints returns the accepted datapoints in input order.
func (r ParseReport) Datapoints() []Datapoint {
	out := make([]Datapoint, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Datapoint != nil {
			out = append(out, *res.Datapoint)
		}
	}
	return out
}

// Rejected returns the results that failed to parse.
func (r ParseReport) Rejected() []ParseResult {
	var out []ParseResult
	for _, res := range r.Results {
		if res.Datapoint == nil {
			out = append(out, res)
		}
	}
	return out
}
