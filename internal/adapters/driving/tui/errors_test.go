package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	errors := []error{
		ErrMissingIndexService,
		ErrInvalidPorts,
		ErrMissingOperation,
		ErrInterrupted,
	}

	seen := make(map[string]bool)
	for _, err := range errors {
		msg := err.Error()
		assert.False(t, seen[msg], "duplicate error message: %s", msg)
		seen[msg] = true
	}
}

func TestErrMissingIndexService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingIndexService.Error(), "index service")
}
