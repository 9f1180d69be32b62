package domain

import "errors"

var (
	// ErrEmbeddingUnavailable indicates the embedding provider is not connected.
	ErrEmbeddingUnavailable = errors.New("embedding provider not connected")

	// ErrEmbeddingProvider covers every provider-side failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrDimensionMismatch indicates two vectors have different dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	ErrNullRecord      = errors.New("vector record or semantic type is empty")
	ErrStoreFailed     = errors.New("failed to store vector")
	ErrRetrievalFailed = errors.New("failed to retrieve vectors")
	ErrDeletionFailed  = errors.New("failed to delete vector")
	ErrClearFailed     = errors.New("failed to clear vectors")

	// ErrObjectNotFound is returned by object stores for a missing key.
	ErrObjectNotFound = errors.New("object not found")

	ErrIndexingDisabled = errors.New("vector indexing is disabled")
	ErrRebuildFailed    = errors.New("failed to rebuild vector index")
	ErrPassInProgress   = errors.New("an indexing pass is already running")
)
