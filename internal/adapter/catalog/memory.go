package catalog

import (
	"sync"

	"typeindex/internal/domain"
)

// MemoryCatalog keeps definitions in insertion order.
type MemoryCatalog struct {
	mu    sync.RWMutex
	types []domain.SemanticType
}

func NewMemoryCatalog(types ...domain.SemanticType) *MemoryCatalog {
	c := &MemoryCatalog{}
	for _, t := range types {
		c.Put(t)
	}
	return c
}

// Put adds a definition or replaces the one with the same name.
func (c *MemoryCatalog) Put(t domain.SemanticType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.types {
		if c.types[i].SemanticType == t.SemanticType {
			c.types[i] = t
			return
		}
	}
	c.types = append(c.types, t)
}

func (c *MemoryCatalog) Remove(semanticType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.types {
		if c.types[i].SemanticType == semanticType {
			c.types = append(c.types[:i], c.types[i+1:]...)
			return true
		}
	}
	return false
}

func (c *MemoryCatalog) ListTypes() ([]domain.SemanticType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.SemanticType, len(c.types))
	copy(out, c.types)
	return out, nil
}
