// Package watcher provides file system watching for task configuration
// files. Changes are debounced so a burst of writes yields one event.
package watcher

import (
	"errors"
	"time"
)

// Common errors.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrPathNotExist    = errors.New("path does not exist")
	ErrAlreadyWatching = errors.New("path is already watched")
	ErrNotWatching     = errors.New("path is not watched")
)

// Op describes a file operation.
type Op uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// Event is a file system change notification.
type Event struct {
	// Path is the affected file path.
	Path string
	// Op is the operation that occurred.
	Op Op
	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Config configures a watcher.
type Config struct {
	// BufferSize is the event channel capacity.
	BufferSize int

	// Debounce coalesces events on the same path within this window.
	// Zero disables debouncing.
	Debounce time.Duration
}

// DefaultConfig returns sensible watcher defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 64,
		Debounce:   250 * time.Millisecond,
	}
}

// Watcher watches file system paths for changes.
type Watcher interface {
	// Watch starts watching a path.
	Watch(path string) error

	// Unwatch stops watching a path.
	Unwatch(path string) error

	// Events returns the event channel.
	Events() <-chan Event

	// Errors returns the error channel.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}
