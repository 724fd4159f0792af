// Package task provides workspace task discovery, resolution, and
// execution for Taskgate.
//
// # Architecture
//
// The task system consists of an index and an executor:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                    Task Index                                    │
//	│  - Reads per-folder task configuration (.taskgate/tasks.json)   │
//	│  - Discovers contributed tasks (Makefile targets)               │
//	│  - Resolves configured entries to the tasks they reference      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                    Task Executor                                 │
//	│  - Runs tasks as child processes                                │
//	│  - Limits concurrency, tracks execution state                   │
//	│  - Notifies listeners on start and completion                   │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Task representation
//
// A folder's task result carries two kinds of entries. Fully-specified
// tasks name a command and can run as-is. Configured entries reference a
// task contributed by another source (for example a Makefile target) and
// are resolved lazily through Index.ResolveTask; an identifier that
// cannot be resolved yields no task rather than an error.
//
// # Automatic tasks
//
// Tasks whose run options carry runOn == "folderOpen" are candidates for
// automatic execution when their workspace folder opens. Whether they
// actually run is decided by the autorun subpackage, which gates
// automatic execution behind a persisted per-workspace consent.
//
// # Subpackages
//
//   - sources: task source implementations (tasks.json, Makefile)
//   - autorun: consent gate and dispatcher for folder-open automation
package task
