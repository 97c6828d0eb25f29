// Package domain defines the core business entities for Sercha Datasets.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Dataset: A named collection of datapoints scoped to a project
//   - Datapoint: One record with data, optional target and metadata
//   - EmbeddingPoint: A vector-index entry keyed by datapoint ID
//   - Filter: An exact-match payload filter used for deletions
//   - IndexReport: Per-batch outcome of an indexing pass
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/google/uuid for identifiers
//   - Cannot Import: Any internal/ package
package domain
