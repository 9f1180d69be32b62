package memstore

import (
	"sort"
	"sync"

	"typeindex/internal/domain"
)

// VectorStore is the in-process fallback used while no durable backend is
// connected. Records are keyed exactly like the durable store.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
}

func NewVectorStore() *VectorStore {
	return &VectorStore{records: make(map[string]domain.VectorRecord)}
}

func (s *VectorStore) Store(record *domain.VectorRecord) error {
	if record == nil || record.SemanticType == "" {
		return domain.ErrNullRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[domain.VectorKey(record.SemanticType)] = cloneRecord(*record)
	return nil
}

// GetAll returns records ordered by key, matching a durable listing.
func (s *VectorStore) GetAll() ([]domain.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.VectorRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneRecord(s.records[k]))
	}
	return out, nil
}

func (s *VectorStore) DeleteBySemanticType(semanticType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.VectorKey(semanticType)
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

func (s *VectorStore) ClearAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	s.records = make(map[string]domain.VectorRecord)
	return n, nil
}

func (s *VectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func cloneRecord(r domain.VectorRecord) domain.VectorRecord {
	r.Embedding = append([]float32(nil), r.Embedding...)
	r.Examples = append([]string(nil), r.Examples...)
	return r
}
