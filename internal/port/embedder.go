package port

import "typeindex/internal/domain"

// EmbeddingProvider turns text into a fixed-length embedding vector.
type EmbeddingProvider interface {
	// Embed generates the embedding for a single text.
	Embed(text string) ([]float32, error)

	// IsConnected reports whether credentials for the provider are present.
	IsConnected() bool

	// Dimension returns the embedding vector dimension, or 0 if unknown.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore holds one VectorRecord per semantic type.
type VectorStore interface {
	// Store writes the record, overwriting any record for the same semantic type.
	Store(record *domain.VectorRecord) error

	// GetAll returns every stored record.
	GetAll() ([]domain.VectorRecord, error)

	// DeleteBySemanticType removes the record for a type. It reports false
	// when no record existed.
	DeleteBySemanticType(semanticType string) (bool, error)

	// ClearAll removes every record and returns how many were removed.
	ClearAll() (int, error)

	// Count returns the number of stored records.
	Count() (int, error)
}
