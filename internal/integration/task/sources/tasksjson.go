package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/taskgate/internal/integration/task"
)

// TasksFileName is the per-folder task configuration file.
const TasksFileName = ".taskgate/tasks.json"

// TasksJSONSource discovers tasks from .taskgate/tasks.json files.
type TasksJSONSource struct{}

// NewTasksJSONSource creates a new tasks.json source.
func NewTasksJSONSource() *TasksJSONSource {
	return &TasksJSONSource{}
}

// Name returns the source name.
func (s *TasksJSONSource) Name() string {
	return "tasksjson"
}

// Patterns returns the file patterns this source handles.
func (s *TasksJSONSource) Patterns() []string {
	return []string{
		"tasks.json",
	}
}

// Priority returns the source priority (highest for explicit configuration).
func (s *TasksJSONSource) Priority() int {
	return 200
}

// TasksFile represents the structure of a tasks.json file.
type TasksFile struct {
	Version string      `json:"version"`
	Tasks   []TaskEntry `json:"tasks"`
}

// TaskEntry represents a single entry in tasks.json. An entry with a
// command is a fully-specified task; an entry with only a configures
// reference customizes a task contributed by another source and is
// resolved lazily.
type TaskEntry struct {
	Label      string            `json:"label"`
	Type       string            `json:"type,omitempty"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Configures string            `json:"configures,omitempty"`
	Options    EntryOptions      `json:"options,omitempty"`
	Group      string            `json:"group,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	RunOptions *EntryRunOptions  `json:"runOptions,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

// EntryOptions contains task execution options.
type EntryOptions struct {
	Cwd string            `json:"cwd,omitempty"`
	Env map[string]string `json:"env,omitempty"`
}

// EntryRunOptions mirrors runOptions in tasks.json.
type EntryRunOptions struct {
	InstanceLimit int    `json:"instanceLimit,omitempty"`
	RunOn         string `json:"runOn,omitempty"`
}

// Discover finds the fully-specified tasks in a tasks.json file.
// Configured entries are reported separately by DiscoverConfigured.
func (s *TasksJSONSource) Discover(ctx context.Context, path string) ([]*task.Task, error) {
	file, err := parseTasksFile(path)
	if err != nil {
		return nil, err
	}

	folder := folderOf(path)
	var tasks []*task.Task
	for i := range file.Tasks {
		entry := &file.Tasks[i]
		if entry.Command == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks = append(tasks, entryToTask(entry, folder, path))
	}
	return tasks, nil
}

// DiscoverConfigured finds the configured-task entries in a tasks.json
// file, keyed by the identifier of the task they configure.
func (s *TasksJSONSource) DiscoverConfigured(ctx context.Context, path string) (map[string]*task.ConfiguredTask, error) {
	file, err := parseTasksFile(path)
	if err != nil {
		return nil, err
	}

	configured := make(map[string]*task.ConfiguredTask)
	for i := range file.Tasks {
		entry := &file.Tasks[i]
		if entry.Command != "" || entry.Configures == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		configured[entry.Configures] = &task.ConfiguredTask{
			Identifier: entry.Configures,
			Label:      entry.Label,
			Configures: entry.Configures,
			RunOptions: entryRunOptions(entry.RunOptions),
		}
	}
	return configured, nil
}

// parseTasksFile reads and decodes a tasks.json file.
func parseTasksFile(path string) (*TasksFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file TasksFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &file, nil
}

// entryToTask converts a fully-specified entry into a task.
func entryToTask(entry *TaskEntry, folder, path string) *task.Task {
	taskType := task.TaskTypeShell
	if entry.Type == "process" {
		taskType = task.TaskTypeProcess
	}

	group := task.InferGroup(entry.Label)
	if entry.Group != "" {
		group = task.TaskGroup(entry.Group)
	}

	cwd := entry.Options.Cwd
	if cwd == "" {
		cwd = folder
	}

	env := entry.Env
	if len(entry.Options.Env) > 0 {
		merged := make(map[string]string, len(env)+len(entry.Options.Env))
		for k, v := range env {
			merged[k] = v
		}
		for k, v := range entry.Options.Env {
			merged[k] = v
		}
		env = merged
	}

	return &task.Task{
		ID:          task.GenerateTaskID("tasksjson", folder, entry.Label),
		Name:        entry.Label,
		Description: entry.Detail,
		Source:      "tasksjson",
		SourceFile:  path,
		Folder:      folder,
		Type:        taskType,
		Group:       group,
		Command:     entry.Command,
		Args:        entry.Args,
		Cwd:         cwd,
		Env:         env,
		RunOptions:  entryRunOptions(entry.RunOptions),
	}
}

// entryRunOptions converts file run options to the task model.
func entryRunOptions(opts *EntryRunOptions) *task.RunOptions {
	if opts == nil {
		return nil
	}
	return &task.RunOptions{
		InstanceLimit: opts.InstanceLimit,
		RunOn:         opts.RunOn,
	}
}

// folderOf returns the workspace folder a tasks.json path belongs to,
// stripping the .taskgate directory.
func folderOf(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == ".taskgate" {
		return filepath.Dir(dir)
	}
	return dir
}
