package services

import "errors"

// Error taxonomy for the ingestion and query pipeline. Callers wrap
// these with fmt.Errorf("...: %w", err) and branch with errors.Is.
var (
	// ErrCorpusNotFound means the fixed constitution file is missing.
	// This is a user-facing error, unlike a missing index.
	ErrCorpusNotFound = errors.New("corpus file not found")

	// ErrUnsupportedFormat marks a file type the extractor cannot parse.
	// Batch ingestion skips such files and keeps going.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrServiceUnavailable means an embedding or language-model backend
	// was unreachable after the documented fallback was attempted.
	ErrServiceUnavailable = errors.New("backend service unavailable")

	// ErrStorage marks a vector index that cannot be created, written or
	// read.
	ErrStorage = errors.New("vector index storage error")

	// ErrNoIndex is returned when a question arrives before any corpus
	// or document has been indexed. It is turned into guidance for the
	// user, never into an HTTP error.
	ErrNoIndex = errors.New("no index loaded")
)
