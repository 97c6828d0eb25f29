// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-datasets. It lets AI assistants re-index, search and prune datasets.
package mcp

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")

// ErrMissingDatapointService is returned when the datapoint service is not provided.
var ErrMissingDatapointService = errors.New("mcp: datapoint service is required")

// ErrMissingDeletionService is returned when the deletion service is not provided.
var ErrMissingDeletionService = errors.New("mcp: deletion service is required")
