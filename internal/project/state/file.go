package state

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StateFileName is the per-workspace state file, relative to the
// workspace root.
const StateFileName = ".taskgate/state.json"

// FileStore is a Store backed by a JSON document on disk. Every read
// re-reads the file so separate stores over the same workspace stay
// consistent with external writes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store rooted at a workspace folder.
func NewFileStore(workspaceRoot string) *FileStore {
	return &FileStore{path: filepath.Join(workspaceRoot, StateFileName)}
}

// NewFileStoreAt creates a store over an explicit state file path.
func NewFileStoreAt(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return s.path
}

// Bool returns the stored boolean for key.
func (s *FileStore) Bool(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, false
	}

	result := gjson.GetBytes(data, escapePath(key))
	if result.Type != gjson.True && result.Type != gjson.False {
		return false, false
	}
	return result.Bool(), true
}

// SetBool persists a boolean under key.
func (s *FileStore) SetBool(key string, value bool) error {
	return s.set(key, value)
}

// String returns the stored string for key.
func (s *FileStore) String(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}

	result := gjson.GetBytes(data, escapePath(key))
	if result.Type != gjson.String {
		return "", false
	}
	return result.String(), true
}

// SetString persists a string under key.
func (s *FileStore) SetString(key, value string) error {
	return s.set(key, value)
}

// Delete removes a key.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	patched, err := sjson.DeleteBytes(data, escapePath(key))
	if err != nil {
		return err
	}
	return s.write(patched)
}

// set patches a single key into the state document.
func (s *FileStore) set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		data = []byte("{}")
	}

	patched, err := sjson.SetBytes(data, escapePath(key), value)
	if err != nil {
		return err
	}
	return s.write(patched)
}

// write persists the state document, creating the directory if needed.
func (s *FileStore) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
