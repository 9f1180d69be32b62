package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
)

// ObjectVectorStore keeps one JSON blob per semantic type in an ObjectStore.
type ObjectVectorStore struct {
	objects port.ObjectStore
	logger  *logging.Logger
}

// NewObjectVectorStore creates a durable vector store over objects.
func NewObjectVectorStore(objects port.ObjectStore, logger *logging.Logger) *ObjectVectorStore {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &ObjectVectorStore{objects: objects, logger: logger}
}

func (s *ObjectVectorStore) Store(record *domain.VectorRecord) error {
	if record == nil || record.SemanticType == "" {
		return domain.ErrNullRecord
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreFailed, record.SemanticType, err)
	}
	if err := s.objects.Put(domain.VectorKey(record.SemanticType), data); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreFailed, record.SemanticType, err)
	}
	return nil
}

// GetAll lists the vector prefix and decodes every blob. A key that vanished
// between list and fetch, or a blob that does not decode, is skipped.
func (s *ObjectVectorStore) GetAll() ([]domain.VectorRecord, error) {
	keys, err := s.objects.List(domain.VectorKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", domain.ErrRetrievalFailed, err)
	}

	records := make([]domain.VectorRecord, 0, len(keys))
	for _, key := range keys {
		if !domain.IsVectorKey(key) {
			continue
		}

		data, err := s.objects.Get(key)
		if err != nil {
			if errors.Is(err, domain.ErrObjectNotFound) {
				s.logger.Warn("vector %s disappeared during listing, skipping", key)
				continue
			}
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrRetrievalFailed, key, err)
		}

		var record domain.VectorRecord
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("skipping undecodable vector %s: %v", key, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *ObjectVectorStore) DeleteBySemanticType(semanticType string) (bool, error) {
	existed, err := s.objects.Delete(domain.VectorKey(semanticType))
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", domain.ErrDeletionFailed, semanticType, err)
	}
	return existed, nil
}

func (s *ObjectVectorStore) ClearAll() (int, error) {
	keys, err := s.objects.List(domain.VectorKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: list: %v", domain.ErrClearFailed, err)
	}

	removed := 0
	for _, key := range keys {
		if !domain.IsVectorKey(key) {
			continue
		}
		existed, err := s.objects.Delete(key)
		if err != nil {
			return removed, fmt.Errorf("%w: %s: %v", domain.ErrClearFailed, key, err)
		}
		if existed {
			removed++
		}
	}
	return removed, nil
}

func (s *ObjectVectorStore) Count() (int, error) {
	keys, err := s.objects.List(domain.VectorKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("%w: list: %v", domain.ErrRetrievalFailed, err)
	}
	n := 0
	for _, key := range keys {
		if domain.IsVectorKey(key) {
			n++
		}
	}
	return n, nil
}
