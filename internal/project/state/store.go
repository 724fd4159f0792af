// Package state provides workspace-scoped persistent key-value storage.
//
// Each workspace keeps a small JSON state document under its .taskgate
// directory. Values are read and patched in place, so concurrent
// writers through separate stores see each other's keys. Readers go to
// disk on every call; nothing is cached between calls.
package state

import (
	"strings"
	"sync"
)

// Store is a workspace-scoped persistent key-value store.
type Store interface {
	// Bool returns the stored boolean for key and whether it was set.
	Bool(key string) (value, ok bool)

	// SetBool persists a boolean under key.
	SetBool(key string, value bool) error

	// String returns the stored string for key and whether it was set.
	String(key string) (value string, ok bool)

	// SetString persists a string under key.
	SetString(key, value string) error

	// Delete removes a key.
	Delete(key string) error
}

// MemoryStore is an in-memory Store for tests and ephemeral workspaces.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]any)}
}

// Bool returns the stored boolean for key.
func (s *MemoryStore) Bool(key string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key].(bool)
	return value, ok
}

// SetBool persists a boolean under key.
func (s *MemoryStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// String returns the stored string for key.
func (s *MemoryStore) String(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key].(string)
	return value, ok
}

// SetString persists a string under key.
func (s *MemoryStore) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// escapePath escapes a key for use as a single JSON path component, so
// dotted keys like "tasks.run.allowAutomatic" address one field instead
// of a nested path.
func escapePath(key string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`.`, `\.`,
		`*`, `\*`,
		`?`, `\?`,
	)
	return replacer.Replace(key)
}

// Ensure implementations satisfy Store.
var _ Store = (*MemoryStore)(nil)
var _ Store = (*FileStore)(nil)
