// Package autorun gates automatic task execution behind a one-time
// per-workspace consent.
//
// Tasks can be configured to run automatically when their workspace
// folder is opened (runOn == "folderOpen"). Because such tasks execute
// arbitrary commands, they are strictly opt-in: the first time a
// workspace with automatic tasks is seen, the user is asked once
// whether to allow them, and the answer is persisted at workspace scope.
//
// The gate has two independent entry points. TryRunTasks runs on every
// folder open and dispatches only when consent is already allowed; it
// never prompts. PromptForPermission runs when the task index first
// becomes ready and solicits the one-time decision; once a decision is
// recorded it is a no-op. Keeping the paths separate ties the prompt to
// index readiness rather than folder-open timing.
//
// Discovery (FindAutoTasks) is side-effect free and returns both the
// task references and their display labels, so the same result feeds
// the prompt text and the dispatch batch. References to tasks that are
// not yet resolved are carried as pending resolutions; a resolution
// that yields nothing is skipped silently, never surfaced as a failure.
package autorun
