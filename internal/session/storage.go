package session

import (
	"sync"
)

// Keys written to durable storage. Nothing outside this package reads them.
const (
	KeyToken   = "token"
	KeyRole    = "role"
	KeyProfile = "user"
)

// Storage is the durable key/value backend behind a Store.
//
// Implementations must be safe for concurrent use. Get reports ok=false for a
// missing key; Remove of a missing key is not an error.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage keeps values in process memory.
// It is the test double for Store and the backend for the "memory" storage mode.
type MemoryStorage struct {
	values sync.Map
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Get returns the value stored under key.
func (m *MemoryStorage) Get(key string) (string, bool, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Set stores value under key.
func (m *MemoryStorage) Set(key, value string) error {
	m.values.Store(key, value)
	return nil
}

// Remove deletes key.
func (m *MemoryStorage) Remove(key string) error {
	m.values.Delete(key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	n := 0
	m.values.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
