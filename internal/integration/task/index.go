package task

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Source is a task source that can discover tasks from files.
type Source interface {
	// Name returns the source name (e.g., "makefile").
	Name() string

	// Patterns returns glob patterns for files this source handles.
	Patterns() []string

	// Priority returns the source priority (higher = more important).
	Priority() int

	// Discover finds tasks in the given file.
	Discover(ctx context.Context, path string) ([]*Task, error)
}

// ConfigSource discovers tasks from a folder's task configuration file.
// Fully-specified entries surface as tasks; entries that only reference
// a named task surface as configured-task entries.
type ConfigSource interface {
	Source

	// DiscoverConfigured finds the configured-task entries in the file.
	DiscoverConfigured(ctx context.Context, path string) (map[string]*ConfiguredTask, error)
}

// ConfigOpener is asked to open a task configuration file for editing.
type ConfigOpener func(folder, path string) error

// IndexConfig configures the task index.
type IndexConfig struct {
	// Config parses the per-folder task configuration file.
	Config ConfigSource

	// Contributed are the sources providing named tasks that configured
	// entries can reference.
	Contributed []Source

	// ConfigFileName is the per-folder task configuration path,
	// relative to the folder root.
	ConfigFileName string

	// Executor runs submitted tasks.
	Executor *Executor

	// OpenConfig opens a task configuration file for editing.
	OpenConfig ConfigOpener
}

// Index resolves workspace folder task sets and named task
// configurations, and submits tasks to the executor.
type Index struct {
	mu      sync.RWMutex
	folders []string
	config  IndexConfig

	// results caches the last discovery per folder.
	results map[string]*FolderTasks

	// contributed caches contributed tasks per folder.
	contributed map[string][]*Task
}

// NewIndex creates a task index over the given workspace folders.
func NewIndex(folders []string, config IndexConfig) *Index {
	return &Index{
		folders:     append([]string{}, folders...),
		config:      config,
		results:     make(map[string]*FolderTasks),
		contributed: make(map[string][]*Task),
	}
}

// AddFolder adds a workspace folder to the index.
func (ix *Index) AddFolder(folder string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, f := range ix.folders {
		if f == folder {
			return
		}
	}
	ix.folders = append(ix.folders, folder)
}

// RemoveFolder removes a workspace folder and its cached results.
func (ix *Index) RemoveFolder(folder string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, f := range ix.folders {
		if f == folder {
			ix.folders = append(ix.folders[:i], ix.folders[i+1:]...)
			break
		}
	}
	delete(ix.results, folder)
	delete(ix.contributed, folder)
}

// Invalidate drops cached discovery results for a folder, forcing the
// next query to re-read task files.
func (ix *Index) Invalidate(folder string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.results, folder)
	delete(ix.contributed, folder)
}

// ConfigPath returns the task configuration file path for a folder.
func (ix *Index) ConfigPath(folder string) string {
	name := ix.config.ConfigFileName
	if name == "" {
		name = filepath.Join(".taskgate", "tasks.json")
	}
	return filepath.Join(folder, name)
}

// WorkspaceTasks returns the task result for every workspace folder
// that has a task configuration. The reason tags what triggered the
// query; it is recorded for listeners but does not change the result.
func (ix *Index) WorkspaceTasks(ctx context.Context, reason Reason) (map[string]*FolderTasks, error) {
	ix.mu.RLock()
	folders := append([]string{}, ix.folders...)
	ix.mu.RUnlock()

	results := make(map[string]*FolderTasks)
	for _, folder := range folders {
		result, err := ix.folderTasks(ctx, folder)
		if err != nil {
			// A malformed or missing task file leaves the folder out of
			// the result rather than failing the whole query.
			continue
		}
		if result != nil {
			results[folder] = result
		}
	}
	return results, nil
}

// folderTasks discovers (or returns cached) tasks for one folder.
func (ix *Index) folderTasks(ctx context.Context, folder string) (*FolderTasks, error) {
	ix.mu.RLock()
	cached, ok := ix.results[folder]
	ix.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := ix.ConfigPath(folder)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	tasks, err := ix.config.Config.Discover(ctx, path)
	if err != nil {
		return nil, err
	}
	configured, err := ix.config.Config.DiscoverConfigured(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &FolderTasks{
		Folder:     folder,
		Tasks:      tasks,
		Configured: configured,
	}

	ix.mu.Lock()
	ix.results[folder] = result
	ix.mu.Unlock()

	return result, nil
}

// ResolveTask resolves a task by identifier within a folder. Configured
// entries are followed to the named task they configure; when force is
// set, nested configuration chains are resolved through contributed
// sources as well. An unknown identifier yields (nil, nil).
func (ix *Index) ResolveTask(ctx context.Context, folder, identifier string, force bool) (*Task, error) {
	result, err := ix.folderTasks(ctx, folder)
	if err != nil || result == nil {
		return nil, err
	}

	// Follow the configured chain, guarding against cycles.
	name := identifier
	var entry *ConfiguredTask
	visited := make(map[string]bool)
	for {
		if visited[name] {
			return nil, nil
		}
		visited[name] = true

		next, ok := result.Configured[name]
		if !ok {
			break
		}
		if entry == nil {
			entry = next
		}
		if next.Configures == name {
			break
		}
		name = next.Configures
	}

	resolved := findByName(result.Tasks, name)
	if resolved == nil && (force || entry == nil) {
		contributed, err := ix.contributedTasks(ctx, folder)
		if err != nil {
			return nil, err
		}
		resolved = findByName(contributed, name)
	}
	if resolved == nil {
		return nil, nil
	}

	if entry == nil {
		return resolved, nil
	}

	// Apply the outermost entry's customizations to a copy.
	merged := *resolved
	if entry.Label != "" {
		merged.Name = entry.Label
	}
	if entry.RunOptions != nil {
		merged.RunOptions = entry.RunOptions
	}
	return &merged, nil
}

// contributedTasks discovers (or returns cached) contributed tasks for
// a folder by matching source patterns against the folder root.
func (ix *Index) contributedTasks(ctx context.Context, folder string) ([]*Task, error) {
	ix.mu.RLock()
	cached, ok := ix.contributed[folder]
	ix.mu.RUnlock()
	if ok {
		return cached, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var tasks []*Task
	for _, dirEntry := range entries {
		if dirEntry.IsDir() {
			continue
		}
		source := ix.sourceFor(dirEntry.Name())
		if source == nil {
			continue
		}
		discovered, err := source.Discover(ctx, filepath.Join(folder, dirEntry.Name()))
		if err != nil {
			continue
		}
		tasks = append(tasks, discovered...)
	}

	ix.mu.Lock()
	ix.contributed[folder] = tasks
	ix.mu.Unlock()

	return tasks, nil
}

// sourceFor returns the highest-priority contributed source matching a
// file name, or nil.
func (ix *Index) sourceFor(name string) Source {
	var matches []Source
	for _, source := range ix.config.Contributed {
		for _, pattern := range source.Patterns() {
			if ok, _ := filepath.Match(pattern, name); ok {
				matches = append(matches, source)
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches[0]
}

// Run submits a task to the executor. Run outcomes are the executor's
// concern; only submission failures are reported.
func (ix *Index) Run(ctx context.Context, t *Task) error {
	_, err := ix.config.Executor.Execute(ctx, t)
	return err
}

// OpenConfig asks the configured opener to open the folder's task
// configuration file.
func (ix *Index) OpenConfig(ctx context.Context, folder string) error {
	if ix.config.OpenConfig == nil {
		return nil
	}
	return ix.config.OpenConfig(folder, ix.ConfigPath(folder))
}

// findByName returns the first task with the given name.
func findByName(tasks []*Task, name string) *Task {
	for _, t := range tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}
