package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested dataset or datapoint does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, backend or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUpstream indicates the relational store, the vector index or the
	// embedding backend failed a request. It is never retried inside the core.
	ErrUpstream = errors.New("upstream failure")

	// ErrIndexFieldMissing indicates a datapoint has no value at the indexed field.
	ErrIndexFieldMissing = errors.New("indexed field missing")

	// ErrReindexInProgress indicates another index lifecycle operation
	// currently holds the dataset.
	ErrReindexInProgress = errors.New("re-index in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
