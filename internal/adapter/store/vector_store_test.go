package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/internal/adapter/memstore"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
)

func newBoltStore(t *testing.T) *BoltObjectStore {
	t.Helper()
	s, err := NewBoltObjectStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(name string, emb ...float32) *domain.VectorRecord {
	now := time.Now().UTC()
	return &domain.VectorRecord{
		ID:           domain.GenerateVectorID(name),
		SemanticType: name,
		Type:         domain.KindCustom,
		Description:  name + " description",
		Embedding:    emb,
		OriginalText: "Semantic Type: " + name + "\n",
		Examples:     []string{"a", "b"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Every backend must satisfy the same contract so callers stay backend-agnostic.
func vectorStores(t *testing.T) map[string]port.VectorStore {
	logger := logging.NewDiscard()

	hybridDurable := NewHybridVectorStore(memstore.NewVectorStore(), "", logger)
	hybridDurable.Connect(newBoltStore(t))

	return map[string]port.VectorStore{
		"bolt":           NewObjectVectorStore(newBoltStore(t), logger),
		"memory-objects": NewObjectVectorStore(memstore.NewObjectStore(), logger),
		"memory":         memstore.NewVectorStore(),
		"hybrid-memory":  NewHybridVectorStore(memstore.NewVectorStore(), "", logger),
		"hybrid-durable": hybridDurable,
	}
}

func TestVectorStoreContract(t *testing.T) {
	for name, vs := range vectorStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, vs.Store(record("EMAIL", 1, 0)))
			require.NoError(t, vs.Store(record("PHONE/NUMBER", 0, 1)))

			all, err := vs.GetAll()
			require.NoError(t, err)
			assert.Len(t, all, 2)

			// Overwrite replaces rather than duplicates.
			updated := record("EMAIL", 0.5, 0.5)
			updated.Description = "changed"
			require.NoError(t, vs.Store(updated))

			all, err = vs.GetAll()
			require.NoError(t, err)
			require.Len(t, all, 2)
			var email *domain.VectorRecord
			for i := range all {
				if all[i].SemanticType == "EMAIL" {
					email = &all[i]
				}
			}
			require.NotNil(t, email)
			assert.Equal(t, "changed", email.Description)
			assert.Equal(t, []float32{0.5, 0.5}, email.Embedding)
			assert.Equal(t, "email", email.ID)

			n, err := vs.Count()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			existed, err := vs.DeleteBySemanticType("PHONE/NUMBER")
			require.NoError(t, err)
			assert.True(t, existed)

			existed, err = vs.DeleteBySemanticType("NOT_THERE")
			require.NoError(t, err)
			assert.False(t, existed)

			require.NoError(t, vs.Store(record("ZIP", 1, 1)))
			removed, err := vs.ClearAll()
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			n, err = vs.Count()
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestVectorStoreRejectsNullRecords(t *testing.T) {
	for name, vs := range vectorStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, vs.Store(nil), domain.ErrNullRecord)
			assert.ErrorIs(t, vs.Store(&domain.VectorRecord{}), domain.ErrNullRecord)
		})
	}
}

// faultyObjects wraps an ObjectStore and injects errors.
type faultyObjects struct {
	port.ObjectStore
	listErr   error
	getErr    map[string]error
	deleteErr error
}

func (f *faultyObjects) List(prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ObjectStore.List(prefix)
}

func (f *faultyObjects) Get(key string) ([]byte, error) {
	if err, ok := f.getErr[key]; ok {
		return nil, err
	}
	return f.ObjectStore.Get(key)
}

func (f *faultyObjects) Delete(key string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.ObjectStore.Delete(key)
}

func TestObjectVectorStore_GetAllSkipsMissingAndCorrupt(t *testing.T) {
	objects := memstore.NewObjectStore()
	faulty := &faultyObjects{ObjectStore: objects, getErr: map[string]error{}}
	vs := NewObjectVectorStore(faulty, logging.NewDiscard())

	require.NoError(t, vs.Store(record("A", 1)))
	require.NoError(t, vs.Store(record("B", 1)))
	require.NoError(t, objects.Put(domain.VectorKey("CORRUPT"), []byte("{not json")))
	require.NoError(t, objects.Put(domain.VectorKeyPrefix+"readme.txt", []byte("ignored")))

	faulty.getErr[domain.VectorKey("B")] = domain.ErrObjectNotFound

	all, err := vs.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].SemanticType)
}

func TestObjectVectorStore_FetchErrorIsFatal(t *testing.T) {
	objects := memstore.NewObjectStore()
	faulty := &faultyObjects{ObjectStore: objects, getErr: map[string]error{}}
	vs := NewObjectVectorStore(faulty, logging.NewDiscard())

	require.NoError(t, vs.Store(record("A", 1)))
	faulty.getErr[domain.VectorKey("A")] = errors.New("access denied")

	_, err := vs.GetAll()
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
}

func TestObjectVectorStore_ErrorMapping(t *testing.T) {
	faulty := &faultyObjects{ObjectStore: memstore.NewObjectStore(), listErr: errors.New("boom")}
	vs := NewObjectVectorStore(faulty, logging.NewDiscard())

	_, err := vs.GetAll()
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)

	_, err = vs.ClearAll()
	assert.ErrorIs(t, err, domain.ErrClearFailed)

	_, err = vs.Count()
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)

	faulty.listErr = nil
	faulty.deleteErr = errors.New("boom")
	_, err = vs.DeleteBySemanticType("A")
	assert.ErrorIs(t, err, domain.ErrDeletionFailed)

	require.NoError(t, vs.Store(record("A", 1)))
	_, err = vs.ClearAll()
	assert.ErrorIs(t, err, domain.ErrClearFailed)
}

func TestHybridVectorStore_ModeSwitchDoesNotMigrate(t *testing.T) {
	h := NewHybridVectorStore(memstore.NewVectorStore(), "", logging.NewDiscard())
	assert.False(t, h.Durable())

	require.NoError(t, h.Store(record("IN_MEMORY", 1)))

	durable := memstore.NewObjectStore()
	h.Connect(durable)
	assert.True(t, h.Durable())

	n, err := h.Count()
	require.NoError(t, err)
	assert.Zero(t, n, "memory records are not copied to the backend")

	require.NoError(t, h.Store(record("DURABLE", 1)))
	keys, err := durable.List(domain.VectorKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.VectorKey("DURABLE")}, keys)

	h.Disconnect()
	all, err := h.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "IN_MEMORY", all[0].SemanticType)
}
