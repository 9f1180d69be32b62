package store

import (
	"sync"
	"time"

	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
)

// HybridVectorStore routes to a durable store while a backend is connected and
// to an in-process store otherwise. Switching modes never migrates data.
type HybridVectorStore struct {
	mu         sync.RWMutex
	memory     port.VectorStore
	objects    port.ObjectStore
	durable    *ObjectVectorStore
	configHash string
	logger     *logging.Logger
}

// NewHybridVectorStore starts disconnected, backed by memory.
func NewHybridVectorStore(memory port.VectorStore, configHash string, logger *logging.Logger) *HybridVectorStore {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &HybridVectorStore{memory: memory, configHash: configHash, logger: logger}
}

// Connect switches to durable mode over objects.
func (h *HybridVectorStore) Connect(objects port.ObjectStore) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects = objects
	h.durable = NewObjectVectorStore(objects, h.logger)
	h.logger.Info("vector store switched to durable mode")
}

// Disconnect reverts to the in-memory store.
func (h *HybridVectorStore) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.durable == nil {
		return
	}
	h.objects = nil
	h.durable = nil
	h.logger.Info("vector store switched to in-memory mode")
}

func (h *HybridVectorStore) Durable() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.durable != nil
}

func (h *HybridVectorStore) active() port.VectorStore {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.durable != nil {
		return h.durable
	}
	return h.memory
}

func (h *HybridVectorStore) Store(record *domain.VectorRecord) error {
	return h.active().Store(record)
}

func (h *HybridVectorStore) GetAll() ([]domain.VectorRecord, error) {
	return h.active().GetAll()
}

func (h *HybridVectorStore) DeleteBySemanticType(semanticType string) (bool, error) {
	return h.active().DeleteBySemanticType(semanticType)
}

func (h *HybridVectorStore) ClearAll() (int, error) {
	return h.active().ClearAll()
}

func (h *HybridVectorStore) Count() (int, error) {
	return h.active().Count()
}

// CheckDrift reports whether the durable vectors were produced by a different
// model or configuration. In-memory mode never drifts.
func (h *HybridVectorStore) CheckDrift(modelID string) (DriftResult, error) {
	h.mu.RLock()
	objects := h.objects
	h.mu.RUnlock()
	if objects == nil {
		return DriftResult{}, nil
	}

	m, err := LoadManifest(objects)
	if err != nil {
		return DriftResult{}, err
	}
	return CheckManifest(m, modelID, h.configHash), nil
}

// RecordManifest stamps the durable backend after a full pass.
func (h *HybridVectorStore) RecordManifest(modelID string) error {
	h.mu.RLock()
	objects := h.objects
	h.mu.RUnlock()
	if objects == nil {
		return nil
	}

	return SaveManifest(objects, &Manifest{
		SchemaVersion: CurrentSchemaVersion,
		ModelID:       modelID,
		ConfigHash:    h.configHash,
		UpdatedAt:     time.Now().UTC(),
	})
}

// Manifest returns the durable backend's manifest, or nil in memory mode or
// when none has been written yet.
func (h *HybridVectorStore) Manifest() (*Manifest, error) {
	h.mu.RLock()
	objects := h.objects
	h.mu.RUnlock()
	if objects == nil {
		return nil, nil
	}
	return LoadManifest(objects)
}
