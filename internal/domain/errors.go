package domain

import "errors"

// Error taxonomy shared by the document store, the weather clients, and the
// HTTP layer. Callers classify with errors.Is; producers wrap with %w.
var (
	// ErrValidation marks a malformed input document.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup for a document id that does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict marks a create for a document id that already exists.
	ErrConflict = errors.New("document already exists")
	// ErrPersistence marks a document store read or write failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrExternalService marks an unreachable or misbehaving weather service.
	ErrExternalService = errors.New("external service failure")
)
