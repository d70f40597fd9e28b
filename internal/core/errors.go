package core

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses with errors.Is; services wrap them with context via fmt.Errorf.
var (
	// ErrNotFound covers profiles, versions, revisions and assets that do
	// not resolve, or resolve to a different owner.
	ErrNotFound = errors.New("not found")

	// ErrUnknownField is returned when a field-write operation names a
	// field missing from the tracked registry.
	ErrUnknownField = errors.New("unknown field")

	// ErrValidation covers malformed or incomplete requests.
	ErrValidation = errors.New("validation failed")

	// ErrServiceUnavailable is returned when no text-generation capability
	// is configured. Surfaced before any streaming begins.
	ErrServiceUnavailable = errors.New("generation service unavailable")
)
