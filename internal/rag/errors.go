package rag

import "errors"

// Pipeline failure taxonomy. Every error leaving this package wraps exactly
// one of these sentinels; callers branch with errors.Is. Nothing is retried
// here; retry and backoff belong to the capability providers.
var (
	// ErrInvalidTenant is returned when a tenant identifier is empty or
	// reduces to nothing after sanitization.
	ErrInvalidTenant = errors.New("invalid tenant identifier")

	// ErrLoad is returned when an uploaded file cannot be staged, read, or
	// parsed. One bad file fails the whole batch.
	ErrLoad = errors.New("load failed")

	// ErrEmbedding is returned when the embedding capability is unavailable
	// or rejects its input.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStore is returned when the vector store rejects a write or query.
	// Partial writes from earlier in the same batch are not rolled back.
	ErrStore = errors.New("vector store failed")

	// ErrGeneration is returned when the generation capability fails.
	// Retrieved passages are discarded since no answer was produced.
	ErrGeneration = errors.New("generation failed")
)
