package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/taskgate/internal/integration/task"
)

// writeTasksFile writes a tasks.json under a fresh workspace folder and
// returns the folder and file paths.
func writeTasksFile(t *testing.T, content string) (folder, path string) {
	t.Helper()
	folder = t.TempDir()
	dir := filepath.Join(folder, ".taskgate")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path = filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tasks.json: %v", err)
	}
	return folder, path
}

func TestTasksJSONDiscover(t *testing.T) {
	folder, path := writeTasksFile(t, `{
		"version": "2.0.0",
		"tasks": [
			{
				"label": "build",
				"type": "shell",
				"command": "go build ./...",
				"group": "build",
				"detail": "Compile all packages",
				"runOptions": {"runOn": "folderOpen"}
			},
			{
				"label": "serve",
				"type": "process",
				"command": "bin/server",
				"args": ["-port", "8080"],
				"options": {"cwd": "/srv", "env": {"MODE": "dev"}}
			},
			{
				"label": "lint",
				"configures": "lint"
			}
		]
	}`)

	source := NewTasksJSONSource()
	tasks, err := source.Discover(context.Background(), path)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	// The configures-only entry is not a fully-specified task.
	if len(tasks) != 2 {
		t.Fatalf("Discover() returned %d tasks, want 2", len(tasks))
	}

	build := tasks[0]
	if build.Name != "build" {
		t.Errorf("tasks[0].Name = %q, want %q", build.Name, "build")
	}
	if build.Type != task.TaskTypeShell {
		t.Errorf("tasks[0].Type = %q, want %q", build.Type, task.TaskTypeShell)
	}
	if build.Group != task.TaskGroupBuild {
		t.Errorf("tasks[0].Group = %q, want %q", build.Group, task.TaskGroupBuild)
	}
	if build.Folder != folder {
		t.Errorf("tasks[0].Folder = %q, want %q", build.Folder, folder)
	}
	if build.Cwd != folder {
		t.Errorf("tasks[0].Cwd = %q, want folder %q", build.Cwd, folder)
	}
	if !build.RunsOnFolderOpen() {
		t.Error("tasks[0] should be flagged to run on folder open")
	}

	serve := tasks[1]
	if serve.Type != task.TaskTypeProcess {
		t.Errorf("tasks[1].Type = %q, want %q", serve.Type, task.TaskTypeProcess)
	}
	if serve.Cwd != "/srv" {
		t.Errorf("tasks[1].Cwd = %q, want %q", serve.Cwd, "/srv")
	}
	if serve.Env["MODE"] != "dev" {
		t.Errorf("tasks[1].Env = %v, want MODE=dev", serve.Env)
	}
	if len(serve.Args) != 2 || serve.Args[0] != "-port" {
		t.Errorf("tasks[1].Args = %v, want [-port 8080]", serve.Args)
	}
	if serve.RunsOnFolderOpen() {
		t.Error("tasks[1] should not run on folder open")
	}
}

func TestTasksJSONDiscoverConfigured(t *testing.T) {
	_, path := writeTasksFile(t, `{
		"version": "2.0.0",
		"tasks": [
			{"label": "build", "command": "make build"},
			{
				"label": "Lint sources",
				"configures": "lint",
				"runOptions": {"runOn": "folderOpen"}
			},
			{"configures": "fmt"}
		]
	}`)

	source := NewTasksJSONSource()
	configured, err := source.DiscoverConfigured(context.Background(), path)
	if err != nil {
		t.Fatalf("DiscoverConfigured() error = %v", err)
	}

	if len(configured) != 2 {
		t.Fatalf("DiscoverConfigured() returned %d entries, want 2", len(configured))
	}

	lint, ok := configured["lint"]
	if !ok {
		t.Fatal("missing configured entry for lint")
	}
	if lint.Label != "Lint sources" {
		t.Errorf("lint.Label = %q, want %q", lint.Label, "Lint sources")
	}
	if lint.DisplayLabel() != "Lint sources" {
		t.Errorf("lint.DisplayLabel() = %q, want %q", lint.DisplayLabel(), "Lint sources")
	}
	if !lint.RunsOnFolderOpen() {
		t.Error("lint should be flagged to run on folder open")
	}

	fmtEntry, ok := configured["fmt"]
	if !ok {
		t.Fatal("missing configured entry for fmt")
	}
	if fmtEntry.DisplayLabel() != "fmt" {
		t.Errorf("fmt.DisplayLabel() = %q, want the configures name", fmtEntry.DisplayLabel())
	}
	if fmtEntry.RunsOnFolderOpen() {
		t.Error("fmt has no run options and should not run on folder open")
	}
}

func TestTasksJSONMalformed(t *testing.T) {
	_, path := writeTasksFile(t, `{not json`)

	source := NewTasksJSONSource()
	if _, err := source.Discover(context.Background(), path); err == nil {
		t.Error("Discover() on malformed file returned nil error")
	}
	if _, err := source.DiscoverConfigured(context.Background(), path); err == nil {
		t.Error("DiscoverConfigured() on malformed file returned nil error")
	}
}

func TestTasksJSONMissingFile(t *testing.T) {
	source := NewTasksJSONSource()
	if _, err := source.Discover(context.Background(), filepath.Join(t.TempDir(), "tasks.json")); err == nil {
		t.Error("Discover() on missing file returned nil error")
	}
}
