// Package kvstore is the string key/value persistence used for game data.
package kvstore

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("kvstore: closed")

// Store is a string key/value store. A missing key is reported with ok=false
// and a nil error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// ClosableStore is a Store holding resources.
type ClosableStore interface {
	Store
	io.Closer
}

// Open opens the SQLite database at path, or an in-memory store when path
// is empty.
func Open(path string) (ClosableStore, error) {
	if path == "" {
		return NewMemory(), nil
	}
	return OpenSQLite(path)
}

// Memory keeps values in a map. The zero value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close is a no-op; the values stay readable.
func (m *Memory) Close() error { return nil }
