package port

import "typeindex/internal/domain"

// TypeCatalog is the authoritative set of semantic type definitions.
type TypeCatalog interface {
	ListTypes() ([]domain.SemanticType, error)
}
