package autorun

import (
	"context"
	"sort"

	"github.com/dshills/taskgate/internal/integration/task"
)

// AllowAutomaticKey is the workspace-scoped store key recording whether
// automatic tasks are allowed to run.
const AllowAutomaticKey = "tasks.run.allowAutomatic"

// Consent is the persisted per-workspace decision about automatic tasks.
type Consent int

const (
	// ConsentUndecided means no decision has been recorded. This is the
	// initial state and the only state in which prompting is permitted.
	ConsentUndecided Consent = iota
	// ConsentAllowed means automatic tasks run without prompting.
	ConsentAllowed
	// ConsentDisallowed means automatic tasks never run.
	ConsentDisallowed
)

// String returns the string representation of the consent state.
func (c Consent) String() string {
	switch c {
	case ConsentAllowed:
		return "allowed"
	case ConsentDisallowed:
		return "disallowed"
	default:
		return "undecided"
	}
}

// Store is the workspace-scoped persistent key-value store the gate
// reads consent from. A missing key reads as (false, false).
type Store interface {
	// Bool returns the stored boolean for key and whether it was set.
	Bool(key string) (value, ok bool)

	// SetBool persists a boolean under key.
	SetBool(key string, value bool) error
}

// Index is the task index the gate queries and dispatches through.
type Index interface {
	// WorkspaceTasks returns the per-folder task results.
	WorkspaceTasks(ctx context.Context, reason task.Reason) (map[string]*task.FolderTasks, error)

	// ResolveTask resolves a task by identifier within a folder. An
	// unresolvable identifier yields (nil, nil).
	ResolveTask(ctx context.Context, folder, identifier string, force bool) (*task.Task, error)

	// Run submits a task to the runner.
	Run(ctx context.Context, t *task.Task) error

	// OpenConfig opens the folder's task configuration for editing.
	OpenConfig(ctx context.Context, folder string) error
}

// Severity classifies a prompt.
type Severity int

const (
	// SeverityInfo is an informational prompt.
	SeverityInfo Severity = iota
	// SeverityWarning is a warning prompt.
	SeverityWarning
	// SeverityError is an error prompt.
	SeverityError
)

// Choice is a prompt outcome. Dismissing the prompt without selecting
// yields ChoiceDismissed.
type Choice int

const (
	// ChoiceDismissed means the prompt was dismissed with no selection.
	ChoiceDismissed Choice = iota
	// ChoiceAllow allows automatic tasks and runs the discovered ones.
	ChoiceAllow
	// ChoiceDisallow forbids automatic tasks.
	ChoiceDisallow
	// ChoiceOpenConfig opens the task configuration for inspection.
	ChoiceOpenConfig
)

// String returns the user-facing label for the choice.
func (c Choice) String() string {
	switch c {
	case ChoiceAllow:
		return "Allow and run"
	case ChoiceDisallow:
		return "Don't allow"
	case ChoiceOpenConfig:
		return "Open tasks.json"
	default:
		return "Dismiss"
	}
}

// Notifier presents a prompt with choices and returns the invoked one.
type Notifier interface {
	Prompt(ctx context.Context, severity Severity, message string, choices []Choice) (Choice, error)
}

// ResolveFunc lazily resolves a task reference. A nil task with a nil
// error means the reference resolved to nothing and is skipped.
type ResolveFunc func(ctx context.Context) (*task.Task, error)

// TaskRef is either a resolved task or a pending resolution. Exactly
// one of Task and Resolve is set.
type TaskRef struct {
	// Task is the resolved task, when resolution was synchronous.
	Task *task.Task

	// Resolve yields the task asynchronously, when it is nil Task is set.
	Resolve ResolveFunc
}

// IsResolved reports whether the reference carries a resolved task.
func (r TaskRef) IsResolved() bool {
	return r.Task != nil
}

// FindAutoTasks scans per-folder task results and returns the task
// references flagged to run on folder open, with their display labels
// in matching order. Fully-specified tasks are returned as resolved
// references; configured entries become pending references that resolve
// by identifier through the index with forced resolution. The scan has
// no side effects, so it is safe to call before consent is known.
func FindAutoTasks(index Index, results map[string]*task.FolderTasks) ([]TaskRef, []string) {
	var refs []TaskRef
	var names []string

	for _, folder := range sortedFolders(results) {
		result := results[folder]
		if result == nil {
			continue
		}

		for _, t := range result.Tasks {
			if !t.RunsOnFolderOpen() {
				continue
			}
			refs = append(refs, TaskRef{Task: t})
			names = append(names, t.Name)
		}

		for _, identifier := range sortedIdentifiers(result.Configured) {
			entry := result.Configured[identifier]
			if !entry.RunsOnFolderOpen() {
				continue
			}
			folder := result.Folder
			id := entry.Identifier
			refs = append(refs, TaskRef{
				Resolve: func(ctx context.Context) (*task.Task, error) {
					return index.ResolveTask(ctx, folder, id, true)
				},
			})
			names = append(names, entry.DisplayLabel())
		}
	}

	return refs, names
}

// sortedFolders returns the result's folder keys in stable order.
func sortedFolders(results map[string]*task.FolderTasks) []string {
	folders := make([]string, 0, len(results))
	for folder := range results {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	return folders
}

// sortedIdentifiers returns configured entry identifiers in stable order.
func sortedIdentifiers(configured map[string]*task.ConfiguredTask) []string {
	identifiers := make([]string, 0, len(configured))
	for identifier := range configured {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	return identifiers
}
