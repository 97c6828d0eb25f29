package tui

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("tui: index service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

// ErrMissingOperation is returned when no operation is given to track.
var ErrMissingOperation = errors.New("tui: operation is required")

// ErrInterrupted is returned when the view exits before the operation finished.
var ErrInterrupted = errors.New("tui: interrupted before the operation finished")
