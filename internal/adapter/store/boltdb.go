package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"typeindex/internal/domain"
)

var bucketObjects = []byte("objects")

var errStoreClosed = errors.New("bolt store is closed")

// BoltObjectStore is a flat key/blob store in a single bbolt bucket.
//
// The database file is only held open while calls are in flight. bbolt takes
// an exclusive file lock for as long as it is open, so releasing it between
// calls lets another process (a CLI next to a running server) share the file.
// Full indexing passes are serialized separately by the pass lock.
type BoltObjectStore struct {
	path    string
	timeout time.Duration

	mu     sync.Mutex
	db     *bbolt.DB
	refs   int
	closed bool
}

// NewBoltObjectStore creates the database at path if needed and makes sure the
// objects bucket exists.
func NewBoltObjectStore(path string) (*BoltObjectStore, error) {
	s := &BoltObjectStore{path: path, timeout: 2 * time.Second}

	err := s.update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketObjects); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketObjects, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// acquire opens the database on first use. Concurrent calls in this process
// share one handle.
func (s *BoltObjectStore) acquire() (*bbolt.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errStoreClosed
	}
	if s.db == nil {
		db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: s.timeout})
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt db: %w", err)
		}
		s.db = db
	}
	s.refs++
	return s.db, nil
}

func (s *BoltObjectStore) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs--
	if s.refs == 0 && s.db != nil {
		s.db.Close()
		s.db = nil
	}
}

func (s *BoltObjectStore) view(fn func(tx *bbolt.Tx) error) error {
	db, err := s.acquire()
	if err != nil {
		return err
	}
	defer s.release()
	return db.View(fn)
}

func (s *BoltObjectStore) update(fn func(tx *bbolt.Tx) error) error {
	db, err := s.acquire()
	if err != nil {
		return err
	}
	defer s.release()
	return db.Update(fn)
}

func (s *BoltObjectStore) Put(key string, data []byte) error {
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketObjects).Put([]byte(key), data)
	})
}

func (s *BoltObjectStore) Get(key string) ([]byte, error) {
	var out []byte
	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketObjects).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrObjectNotFound, key)
		}
		// bbolt values are only valid inside the transaction.
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}

// List seeks to prefix and walks the sorted keyspace while keys still match.
func (s *BoltObjectStore) List(prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := s.view(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketObjects).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

func (s *BoltObjectStore) Delete(key string) (bool, error) {
	existed := false
	err := s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		if b.Get([]byte(key)) == nil {
			return nil
		}
		existed = true
		return b.Delete([]byte(key))
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func (s *BoltObjectStore) Path() string {
	return s.path
}

// Close rejects further calls. A handle still in use by an in-flight call is
// closed when that call returns.
func (s *BoltObjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
