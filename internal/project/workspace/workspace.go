// Package workspace provides workspace folder management for Taskgate.
// It handles workspace folders and folder lifecycle callbacks.
package workspace

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
)

// Common errors.
var (
	ErrNoFolders       = errors.New("workspace has no folders")
	ErrFolderNotFound  = errors.New("folder not found in workspace")
	ErrFolderExists    = errors.New("folder already in workspace")
	ErrInvalidPath     = errors.New("invalid folder path")
	ErrWorkspaceClosed = errors.New("workspace is closed")
)

// Folder represents a single folder in the workspace.
type Folder struct {
	// Path is the local file system path.
	Path string
	// Name is the display name for the folder.
	Name string
}

// Workspace represents a collection of folders being worked on.
// It supports both single-root and multi-root workspaces.
type Workspace struct {
	mu      sync.RWMutex
	folders []Folder
	closed  bool

	// Callbacks
	onFolderAdd    []func(Folder)
	onFolderRemove []func(Folder)
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{}
}

// Open creates a workspace with the given folder paths.
func Open(paths ...string) (*Workspace, error) {
	ws := New()
	for _, path := range paths {
		if err := ws.AddFolder(path); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// AddFolder adds a folder to the workspace and fires the add callbacks.
func (w *Workspace) AddFolder(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return ErrInvalidPath
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWorkspaceClosed
	}
	for _, f := range w.folders {
		if f.Path == absPath {
			w.mu.Unlock()
			return ErrFolderExists
		}
	}

	folder := Folder{
		Path: absPath,
		Name: filepath.Base(absPath),
	}
	w.folders = append(w.folders, folder)
	callbacks := append([]func(Folder){}, w.onFolderAdd...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(folder)
	}
	return nil
}

// RemoveFolder removes a folder and fires the remove callbacks.
func (w *Workspace) RemoveFolder(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ErrInvalidPath
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWorkspaceClosed
	}

	idx := -1
	for i, f := range w.folders {
		if f.Path == absPath {
			idx = i
			break
		}
	}
	if idx < 0 {
		w.mu.Unlock()
		return ErrFolderNotFound
	}

	folder := w.folders[idx]
	w.folders = append(w.folders[:idx], w.folders[idx+1:]...)
	callbacks := append([]func(Folder){}, w.onFolderRemove...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(folder)
	}
	return nil
}

// Folders returns a copy of the workspace folders.
func (w *Workspace) Folders() []Folder {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Folder{}, w.folders...)
}

// FolderPaths returns the folder paths in order.
func (w *Workspace) FolderPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, len(w.folders))
	for i, f := range w.folders {
		paths[i] = f.Path
	}
	return paths
}

// Root returns the first folder path, the workspace's primary root.
func (w *Workspace) Root() (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.folders) == 0 {
		return "", ErrNoFolders
	}
	return w.folders[0].Path, nil
}

// FolderFor returns the workspace folder containing the given path.
func (w *Workspace) FolderFor(path string) (Folder, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Folder{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, f := range w.folders {
		if absPath == f.Path || strings.HasPrefix(absPath, f.Path+string(filepath.Separator)) {
			return f, true
		}
	}
	return Folder{}, false
}

// OnFolderAdd registers a callback for folder additions.
func (w *Workspace) OnFolderAdd(cb func(Folder)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFolderAdd = append(w.onFolderAdd, cb)
}

// OnFolderRemove registers a callback for folder removals.
func (w *Workspace) OnFolderRemove(cb func(Folder)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFolderRemove = append(w.onFolderRemove, cb)
}

// Close marks the workspace closed; further mutations fail.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// IsClosed reports whether the workspace has been closed.
func (w *Workspace) IsClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}
