package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/taskgate/internal/integration/task"
)

// writeMakefile writes a Makefile into a fresh folder.
func writeMakefile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Makefile")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write Makefile: %v", err)
	}
	return path
}

func taskNames(tasks []*task.Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return names
}

func TestMakefileDiscoverPhonyTargets(t *testing.T) {
	path := writeMakefile(t, `
.PHONY: build test clean

## Compile the binary
build:
	go build ./...

test:
	go test ./...

clean:
	rm -rf bin

helper.o: helper.c
	cc -c helper.c
`)

	source := NewMakefileSource()
	tasks, err := source.Discover(context.Background(), path)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	got := taskNames(tasks)
	want := []string{"build", "test", "clean"}
	if len(got) != len(want) {
		t.Fatalf("Discover() targets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("targets[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	build := tasks[0]
	if build.Description != "Compile the binary" {
		t.Errorf("build.Description = %q, want doc comment", build.Description)
	}
	if build.Type != task.TaskTypeMake {
		t.Errorf("build.Type = %q, want %q", build.Type, task.TaskTypeMake)
	}
	if build.Command != "make" || len(build.Args) != 1 || build.Args[0] != "build" {
		t.Errorf("build command = %q %v, want make [build]", build.Command, build.Args)
	}
	if build.Folder != filepath.Dir(path) {
		t.Errorf("build.Folder = %q, want %q", build.Folder, filepath.Dir(path))
	}
	if build.Group != task.TaskGroupBuild {
		t.Errorf("build.Group = %q, want %q", build.Group, task.TaskGroupBuild)
	}
}

func TestMakefileDiscoverWithoutPhony(t *testing.T) {
	path := writeMakefile(t, `
all: build

build:
	go build ./...
`)

	source := NewMakefileSource()
	tasks, err := source.Discover(context.Background(), path)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	// Without .PHONY declarations every target is included.
	got := taskNames(tasks)
	if len(got) != 2 || got[0] != "all" || got[1] != "build" {
		t.Fatalf("Discover() targets = %v, want [all build]", got)
	}
	if !tasks[0].IsDefault {
		t.Error("target all should be marked default")
	}
}

func TestMakefileSkipsInternalTargets(t *testing.T) {
	path := writeMakefile(t, `
.DEFAULT_GOAL := build

_helper:
	true

%.o: %.c
	cc -c $<

build:
	go build ./...
`)

	source := NewMakefileSource()
	tasks, err := source.Discover(context.Background(), path)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	got := taskNames(tasks)
	if len(got) != 1 || got[0] != "build" {
		t.Errorf("Discover() targets = %v, want [build]", got)
	}
}

func TestMakefileDocCommentDoesNotLeak(t *testing.T) {
	path := writeMakefile(t, `
## Only for build
build:
	go build ./...

test:
	go test ./...
`)

	source := NewMakefileSource()
	tasks, err := source.Discover(context.Background(), path)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("Discover() returned %d tasks, want 2", len(tasks))
	}
	if tasks[1].Description != "" {
		t.Errorf("test.Description = %q, want empty", tasks[1].Description)
	}
}
