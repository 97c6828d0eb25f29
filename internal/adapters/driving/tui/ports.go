// Package tui provides terminal progress views for long-running index
// operations. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Index reports the re-index status polled while an operation runs.
	Index driving.IndexService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(index driving.IndexService) *Ports {
	return &Ports{Index: index}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
