package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by collection operations.
var (
	// ErrNotFound means the referenced id is absent from the collection.
	// The operation aborted with no state change.
	ErrNotFound = errors.New("record not found")
	// ErrUnauthorized means a mutating operation ran without the admin
	// predicate holding. The operation aborted with no state change.
	ErrUnauthorized = errors.New("admin login required")
)

// ValidationError reports a malformed or missing field. Validation runs
// before any store write, so a failing draft never leaves the collection
// half-updated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
