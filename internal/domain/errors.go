package domain

import "errors"

// Package-level sentinel errors shared across repositories and handlers.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidationFailed = errors.New("validation failed")
	ErrDuplicateContent = errors.New("duplicate content hash for edition date")
	// ErrEmbeddingsUnavailable is returned when the embedding store (the
	// pgvector-backed article_embeddings table) has not been bootstrapped.
	// /similar treats embeddings as a hard dependency rather than degrading to a keyword fallback.
	ErrEmbeddingsUnavailable = errors.New("embedding provider unavailable")
)

// ValidationError names the offending field, for handlers that need to
// surface field-level detail in a 4xx response body.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
