// Package sources provides task discovery sources for workspace folders.
package sources

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/taskgate/internal/integration/task"
)

// MakefileSource discovers tasks from Makefiles. Its targets form the
// pool of named tasks that configured entries in tasks.json can
// reference.
type MakefileSource struct{}

// NewMakefileSource creates a new Makefile source.
func NewMakefileSource() *MakefileSource {
	return &MakefileSource{}
}

// Name returns the source name.
func (s *MakefileSource) Name() string {
	return "makefile"
}

// Patterns returns the file patterns this source handles.
func (s *MakefileSource) Patterns() []string {
	return []string{
		"Makefile",
		"makefile",
		"GNUmakefile",
	}
}

// Priority returns the source priority.
func (s *MakefileSource) Priority() int {
	return 100
}

var (
	targetPattern       = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_-]*)\s*:(?:[^=]|$)`)
	phonyCapturePattern = regexp.MustCompile(`^\.PHONY\s*:\s*(.+)$`)
	docCommentPattern   = regexp.MustCompile(`^##\s*(.*)$`)
)

// Discover finds tasks in a Makefile.
func (s *MakefileSource) Discover(ctx context.Context, path string) ([]*task.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// First pass: collect phony targets (these are typically the
	// "runnable" tasks).
	phonyTargets := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if matches := phonyCapturePattern.FindStringSubmatch(scanner.Text()); matches != nil {
			for _, target := range strings.Fields(matches[1]) {
				phonyTargets[target] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}

	folder := filepath.Dir(path)
	var tasks []*task.Task
	var currentComment string

	scanner = bufio.NewScanner(file)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()

		// Documentation comment (## prefix) applies to the next target.
		if matches := docCommentPattern.FindStringSubmatch(line); matches != nil {
			currentComment = matches[1]
			continue
		}

		matches := targetPattern.FindStringSubmatch(line)
		if matches == nil {
			if !strings.HasPrefix(line, "#") && strings.TrimSpace(line) != "" {
				currentComment = ""
			}
			continue
		}

		targetName := matches[1]

		// Skip internal targets and pattern rules.
		if strings.HasPrefix(targetName, ".") || strings.HasPrefix(targetName, "_") ||
			strings.Contains(targetName, "%") {
			currentComment = ""
			continue
		}

		t := &task.Task{
			ID:          task.GenerateTaskID("makefile", folder, targetName),
			Name:        targetName,
			Description: currentComment,
			Source:      "makefile",
			SourceFile:  path,
			Folder:      folder,
			Type:        task.TaskTypeMake,
			Group:       task.InferGroup(targetName),
			Command:     "make",
			Args:        []string{targetName},
			Cwd:         folder,
			IsDefault:   targetName == "all" || targetName == "default",
		}

		// Only include phony targets when the Makefile declares any,
		// otherwise include all targets.
		if len(phonyTargets) == 0 || phonyTargets[targetName] {
			tasks = append(tasks, t)
		}

		currentComment = ""
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}
