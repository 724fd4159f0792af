package state

import (
	"os"
	"path/filepath"
	"testing"
)

// stores builds one of each Store implementation over a temp workspace.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
	}
}

func TestStoreBoolRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok := store.Bool("missing"); ok {
				t.Error("missing key reported as set")
			}

			if err := store.SetBool("flag", true); err != nil {
				t.Fatalf("SetBool() error = %v", err)
			}
			if value, ok := store.Bool("flag"); !ok || !value {
				t.Errorf("Bool(flag) = (%v, %v), want (true, true)", value, ok)
			}

			if err := store.SetBool("flag", false); err != nil {
				t.Fatalf("SetBool() error = %v", err)
			}
			if value, ok := store.Bool("flag"); !ok || value {
				t.Errorf("Bool(flag) = (%v, %v), want (false, true)", value, ok)
			}
		})
	}
}

func TestStoreStringRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok := store.String("missing"); ok {
				t.Error("missing key reported as set")
			}

			if err := store.SetString("theme", "dark"); err != nil {
				t.Fatalf("SetString() error = %v", err)
			}
			if value, ok := store.String("theme"); !ok || value != "dark" {
				t.Errorf("String(theme) = (%q, %v), want (dark, true)", value, ok)
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SetBool("flag", true); err != nil {
				t.Fatalf("SetBool() error = %v", err)
			}
			if err := store.Delete("flag"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, ok := store.Bool("flag"); ok {
				t.Error("deleted key still reported as set")
			}

			// Deleting a missing key is not an error.
			if err := store.Delete("never-set"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestStoreDottedKeys(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			// Dotted keys are single keys, not nested paths.
			if err := store.SetBool("tasks.run.allowAutomatic", true); err != nil {
				t.Fatalf("SetBool() error = %v", err)
			}
			if value, ok := store.Bool("tasks.run.allowAutomatic"); !ok || !value {
				t.Errorf("Bool() = (%v, %v), want (true, true)", value, ok)
			}
			if _, ok := store.Bool("tasks"); ok {
				t.Error("prefix of a dotted key reported as set")
			}
		})
	}
}

func TestStoreTypeMismatch(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SetString("key", "yes"); err != nil {
				t.Fatalf("SetString() error = %v", err)
			}
			if _, ok := store.Bool("key"); ok {
				t.Error("string value read as a set boolean")
			}
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	root := t.TempDir()

	first := NewFileStore(root)
	if err := first.SetBool("tasks.run.allowAutomatic", true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}

	// A fresh store over the same workspace sees the persisted value.
	second := NewFileStore(root)
	if value, ok := second.Bool("tasks.run.allowAutomatic"); !ok || !value {
		t.Errorf("Bool() = (%v, %v), want (true, true)", value, ok)
	}
}

func TestFileStoreCreatesStateFile(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	if err := store.SetBool("flag", true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}

	path := filepath.Join(root, StateFileName)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not created at %s: %v", path, err)
	}
	if got := store.Path(); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
}

func TestFileStorePreservesOtherKeys(t *testing.T) {
	store := NewFileStoreAt(filepath.Join(t.TempDir(), "state.json"))

	if err := store.SetBool("a", true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if err := store.SetString("b", "kept"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if value, ok := store.String("b"); !ok || value != "kept" {
		t.Errorf("String(b) = (%q, %v), want (kept, true)", value, ok)
	}
}
