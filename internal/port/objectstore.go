package port

// ObjectStore is a flat key/value blob backend.
type ObjectStore interface {
	Put(key string, data []byte) error

	// Get returns domain.ErrObjectNotFound for a missing key.
	Get(key string) ([]byte, error)

	// List returns all keys starting with prefix, in lexical order.
	List(prefix string) ([]string, error)

	// Delete removes a key and reports whether it existed.
	Delete(key string) (bool, error)
}
