package domain

import "errors"

var (
	// ErrDocumentNotFound is returned for unknown document IDs.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoPlaceholders rejects uploads in which no valid placeholder was
	// detected; such documents cannot be filled conversationally.
	ErrNoPlaceholders = errors.New("no placeholders found in document")

	// ErrGenerationBlocked is returned when generation is requested while
	// unfilled placeholders remain. The session can continue and generation
	// retried once every value is set.
	ErrGenerationBlocked = errors.New("document has unfilled placeholders")
)
