package task

import (
	"fmt"
	"strings"
)

// TaskType identifies the type of task.
type TaskType string

const (
	// TaskTypeShell is a shell command task.
	TaskTypeShell TaskType = "shell"
	// TaskTypeProcess is a process-based task.
	TaskTypeProcess TaskType = "process"
	// TaskTypeMake is a make target task.
	TaskTypeMake TaskType = "make"
)

// TaskGroup categorizes tasks.
type TaskGroup string

const (
	// TaskGroupBuild contains build-related tasks.
	TaskGroupBuild TaskGroup = "build"
	// TaskGroupTest contains test-related tasks.
	TaskGroupTest TaskGroup = "test"
	// TaskGroupRun contains run/start tasks.
	TaskGroupRun TaskGroup = "run"
	// TaskGroupLint contains linting tasks.
	TaskGroupLint TaskGroup = "lint"
	// TaskGroupOther contains uncategorized tasks.
	TaskGroupOther TaskGroup = "other"
)

// RunOn values recognized in task run options.
const (
	// RunOnDefault means the task only runs when explicitly requested.
	RunOnDefault = "default"
	// RunOnFolderOpen means the task is a candidate for automatic
	// execution when its workspace folder is opened.
	RunOnFolderOpen = "folderOpen"
)

// Reason describes why a workspace task query was made.
type Reason string

const (
	// ReasonFolderOpen tags queries triggered by opening a workspace folder.
	ReasonFolderOpen Reason = "folderOpen"
	// ReasonUser tags queries triggered by an explicit user request.
	ReasonUser Reason = "user"
)

// Task represents a discovered task that can be executed.
type Task struct {
	// ID is a unique identifier for the task.
	ID string `json:"id"`

	// Name is the display name of the task.
	Name string `json:"name"`

	// Description is a human-readable description.
	Description string `json:"description,omitempty"`

	// Source identifies where this task was discovered from.
	Source string `json:"source"`

	// SourceFile is the file path where the task was found.
	SourceFile string `json:"sourceFile,omitempty"`

	// Folder is the workspace folder the task belongs to.
	Folder string `json:"folder,omitempty"`

	// Type is the task type.
	Type TaskType `json:"type"`

	// Group is the task category.
	Group TaskGroup `json:"group"`

	// Command is the command to execute.
	Command string `json:"command"`

	// Args are the command arguments.
	Args []string `json:"args,omitempty"`

	// Cwd is the working directory for the task.
	Cwd string `json:"cwd,omitempty"`

	// Env are environment variables for the task.
	Env map[string]string `json:"env,omitempty"`

	// IsDefault indicates this is a default task for its group.
	IsDefault bool `json:"isDefault,omitempty"`

	// RunOptions contains execution options.
	RunOptions *RunOptions `json:"runOptions,omitempty"`
}

// RunOptions contains task execution options.
type RunOptions struct {
	// InstanceLimit is the max concurrent instances (0 = unlimited).
	InstanceLimit int `json:"instanceLimit,omitempty"`

	// RunOn specifies when to run: "default" or "folderOpen".
	RunOn string `json:"runOn,omitempty"`
}

// RunsOnFolderOpen reports whether the task is flagged for automatic
// execution on folder open.
func (t *Task) RunsOnFolderOpen() bool {
	return t.RunOptions != nil && t.RunOptions.RunOn == RunOnFolderOpen
}

// ConfiguredTask is a task configuration entry that references a named
// task contributed elsewhere (for example a Makefile target) instead of
// fully specifying a command. The referenced task is resolved lazily
// through the index.
type ConfiguredTask struct {
	// Identifier keys the entry within its folder's configuration.
	Identifier string `json:"identifier"`

	// Label is the optional display label for the entry.
	Label string `json:"label,omitempty"`

	// Configures names the task this entry configures. Used as the
	// display label when Label is empty.
	Configures string `json:"configures"`

	// RunOptions contains execution options applied to the resolved task.
	RunOptions *RunOptions `json:"runOptions,omitempty"`
}

// DisplayLabel returns the entry's label, falling back to the name of
// the task it configures.
func (c *ConfiguredTask) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Configures
}

// RunsOnFolderOpen reports whether the entry is flagged for automatic
// execution on folder open.
func (c *ConfiguredTask) RunsOnFolderOpen() bool {
	return c.RunOptions != nil && c.RunOptions.RunOn == RunOnFolderOpen
}

// FolderTasks is the per-workspace-folder task result: the tasks that
// are fully specified plus the configuration entries that still need
// resolution.
type FolderTasks struct {
	// Folder is the workspace folder path.
	Folder string

	// Tasks are the fully-specified tasks for the folder.
	Tasks []*Task

	// Configured maps configuration identifiers to configured-task
	// entries awaiting resolution.
	Configured map[string]*ConfiguredTask
}

// GenerateTaskID generates a stable task ID from its origin.
func GenerateTaskID(source, folder, name string) string {
	return fmt.Sprintf("%s:%s:%s", source, folder, name)
}

// InferGroup infers the task group from the task name.
func InferGroup(name string) TaskGroup {
	buildPatterns := []string{"build", "compile", "package", "bundle"}
	testPatterns := []string{"test", "spec", "check", "verify", "coverage"}
	runPatterns := []string{"run", "start", "serve", "dev", "watch"}
	lintPatterns := []string{"lint", "format", "fmt", "vet"}

	lowerName := strings.ToLower(name)

	for _, pattern := range buildPatterns {
		if strings.Contains(lowerName, pattern) {
			return TaskGroupBuild
		}
	}

	for _, pattern := range testPatterns {
		if strings.Contains(lowerName, pattern) {
			return TaskGroupTest
		}
	}

	for _, pattern := range runPatterns {
		if strings.Contains(lowerName, pattern) {
			return TaskGroupRun
		}
	}

	for _, pattern := range lintPatterns {
		if strings.Contains(lowerName, pattern) {
			return TaskGroupLint
		}
	}

	return TaskGroupOther
}
