package models

import (
	"fmt"
)

// RootNotFoundError indicates a supplied tree root does not exist or is not
// a directory. This is the only failure that aborts a run before scanning.
type RootNotFoundError struct {
	Side Side
	Root string
	Err  error
}

func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("%s root not found: %s", e.Side, e.Root)
}

func (e *RootNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid configuration value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
