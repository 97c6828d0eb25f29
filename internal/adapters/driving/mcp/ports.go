package mcp

import (
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Index re-indexes and rebuilds datasets.
	Index driving.IndexService

	// Datapoint searches datapoints.
	Datapoint driving.DatapointService

	// Deletion removes datapoints.
	Deletion driving.DeletionService

	// Dataset lists datasets for the resources. Optional.
	Dataset driving.DatasetService

	// Project is used when a tool call names no project.
	Project string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndexService
	}
	if p.Datapoint == nil {
		return ErrMissingDatapointService
	}
	if p.Deletion == nil {
		return ErrMissingDeletionService
	}
	return nil
}

// project returns the requested project or the default one.
func (p *Ports) project(requested string) string {
	if requested != "" {
		return requested
	}
	return p.Project
}
