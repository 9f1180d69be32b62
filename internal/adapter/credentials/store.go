package credentials

import (
	"os"
	"strings"
	"sync"
)

// Store holds the provider API key. Connect and disconnect on the exposed API
// write here; embedding providers read it at call time.
type Store struct {
	mu     sync.RWMutex
	apiKey string
}

func NewStore() *Store {
	return &Store{}
}

// FromEnv seeds a store from the named environment variable. An empty or
// unset variable leaves the store disconnected.
func FromEnv(envVar string) *Store {
	s := NewStore()
	if envVar != "" {
		s.Set(os.Getenv(envVar))
	}
	return s
}

func (s *Store) Set(apiKey string) {
	s.mu.Lock()
	s.apiKey = strings.TrimSpace(apiKey)
	s.mu.Unlock()
}

func (s *Store) Clear() {
	s.Set("")
}

// Available reports whether a key is present.
func (s *Store) Available() bool {
	return s.APIKey() != ""
}

func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}
