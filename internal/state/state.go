package state

import (
	"errors"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("state entry not found")

// Store persists opaque blobs under string keys. Implementations must be
// safe for concurrent use.
type Store interface {
	Load(key string) ([]byte, error)

	Save(key string, data []byte) error

	Remove(key string) error
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

type scopedStore struct {
	base   Store
	prefix string
}

// Scoped namespaces every key of base under scope.
func Scoped(base Store, scope string) Store {
	return &scopedStore{base: base, prefix: scope + "/"}
}

func (s *scopedStore) Load(key string) ([]byte, error) {
	return s.base.Load(s.prefix + key)
}

func (s *scopedStore) Save(key string, data []byte) error {
	return s.base.Save(s.prefix+key, data)
}

func (s *scopedStore) Remove(key string) error {
	return s.base.Remove(s.prefix + key)
}

// splitScope cuts at the last separator. Store keys never contain "/", so
// a scope that does stays intact.
func splitScope(key string) (string, string) {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}
