package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

// storeErr wraps a relational store failure. Domain errors the store
// reports on purpose pass through unchanged.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) ||
		errors.Is(err, domain.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, err)
}
