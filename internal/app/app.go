package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"sync"

	"github.com/dshills/taskgate/internal/config"
	"github.com/dshills/taskgate/internal/event"
	"github.com/dshills/taskgate/internal/integration/task"
	"github.com/dshills/taskgate/internal/integration/task/autorun"
	"github.com/dshills/taskgate/internal/integration/task/sources"
	"github.com/dshills/taskgate/internal/project/state"
	"github.com/dshills/taskgate/internal/project/watcher"
	"github.com/dshills/taskgate/internal/project/workspace"
)

// Common errors.
var (
	ErrNoWorkspace = errors.New("no workspace folder given")
)

// Options configures the application.
type Options struct {
	// Folders are the workspace folders to open. The first is the
	// primary root that owns workspace-scoped state.
	Folders []string

	// ConfigPath overrides the settings file location.
	ConfigPath string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// Notifier overrides the prompt surface. Defaults to the terminal.
	Notifier autorun.Notifier

	// LogOutput overrides the log destination. Defaults to stderr.
	LogOutput io.Writer
}

// Application wires the workspace, task index, consent gate, and event
// bus together.
type Application struct {
	opts     Options
	settings *config.Settings
	logger   *Logger

	ws       *workspace.Workspace
	store    *state.FileStore
	executor *task.Executor
	index    *task.Index
	gate     *autorun.Gate
	bus      *event.Bus
	watch    watcher.Watcher

	ctx    context.Context
	cancel context.CancelFunc

	shutdownOnce sync.Once
	watchWg      sync.WaitGroup
}

// New creates an application for the given workspace folders.
func New(opts Options) (*Application, error) {
	if len(opts.Folders) == 0 {
		return nil, ErrNoWorkspace
	}

	ws, err := workspace.Open(opts.Folders...)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	root, err := ws.Root()
	if err != nil {
		return nil, err
	}

	var settings *config.Settings
	if opts.ConfigPath != "" {
		settings, err = config.LoadFile(opts.ConfigPath)
	} else {
		settings, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	level := settings.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	loggerCfg := DefaultLoggerConfig()
	loggerCfg.Level = ParseLogLevel(level)
	if opts.LogOutput != nil {
		loggerCfg.Output = opts.LogOutput
	}
	logger := NewLogger(loggerCfg)

	execCfg := task.DefaultExecutorConfig()
	if settings.Tasks.Shell != "" {
		execCfg.DefaultShell = settings.Tasks.Shell
	}
	if len(settings.Tasks.ShellArgs) > 0 {
		execCfg.DefaultShellArgs = settings.Tasks.ShellArgs
	}
	if settings.Tasks.MaxConcurrent > 0 {
		execCfg.MaxConcurrent = settings.Tasks.MaxConcurrent
	}
	execCfg.DefaultEnv = settings.Tasks.Env
	execCfg.WorkingDir = root

	executor := task.NewExecutor(execCfg)
	executor.AddListener(&executionLogger{logger: logger.WithComponent("executor")})

	app := &Application{
		opts:     opts,
		settings: settings,
		logger:   logger,
		ws:       ws,
		store:    state.NewFileStore(root),
		executor: executor,
		bus:      event.NewBus(),
	}

	app.index = task.NewIndex(ws.FolderPaths(), task.IndexConfig{
		Config:      sources.NewTasksJSONSource(),
		Contributed: []task.Source{sources.NewMakefileSource()},
		Executor:    executor,
		OpenConfig:  app.openTaskConfig,
	})

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewTerminalNotifier()
	}
	app.gate = autorun.New(app.store, app.index, notifier)

	app.subscribe()

	ws.OnFolderAdd(func(f workspace.Folder) {
		app.index.AddFolder(f.Path)
		_ = app.bus.Publish(app.context(), event.Event{Topic: event.TopicFolderOpened, Data: f})
	})
	ws.OnFolderRemove(func(f workspace.Folder) {
		app.index.RemoveFolder(f.Path)
		_ = app.bus.Publish(app.context(), event.Event{Topic: event.TopicFolderClosed, Data: f})
	})

	return app, nil
}

// subscribe wires the consent gate's two entry points to the bus.
func (app *Application) subscribe() {
	// Folder open: run allowed automatic tasks. Never prompts.
	_, _ = app.bus.Subscribe(event.TopicFolderOpened, func(ctx context.Context, _ event.Event) {
		if err := app.gate.TryRunTasks(ctx); err != nil {
			app.logger.Error("automatic tasks: %v", err)
		}
	})

	// Index ready: solicit the one-time consent decision.
	_, _ = app.bus.Subscribe(event.TopicIndexReady, func(ctx context.Context, ev event.Event) {
		results, ok := ev.Data.(map[string]*task.FolderTasks)
		if !ok {
			return
		}
		if err := app.gate.PromptForPermission(ctx, results); err != nil {
			app.logger.Error("automatic task prompt: %v", err)
		}
	})
}

// Run performs the folder-open flow: fires the folder-open entry point,
// then marks the index ready with the initial discovery, then starts
// watching task configuration files for changes.
func (app *Application) Run(ctx context.Context) error {
	app.ctx, app.cancel = context.WithCancel(ctx)

	app.logger.Info("opening workspace %s", app.ws.FolderPaths())

	if err := app.bus.Publish(app.ctx, event.Event{Topic: event.TopicFolderOpened}); err != nil {
		return err
	}

	if err := app.publishIndexReady(app.ctx); err != nil {
		return err
	}

	return app.startWatcher()
}

// publishIndexReady queries the index and announces its result.
func (app *Application) publishIndexReady(ctx context.Context) error {
	results, err := app.index.WorkspaceTasks(ctx, task.ReasonFolderOpen)
	if err != nil {
		return fmt.Errorf("discover workspace tasks: %w", err)
	}
	return app.bus.Publish(ctx, event.Event{Topic: event.TopicIndexReady, Data: results})
}

// startWatcher watches each folder's task configuration directory and
// refreshes the index on changes.
func (app *Application) startWatcher() error {
	w, err := watcher.NewFSNotifyWatcher(watcher.DefaultConfig())
	if err != nil {
		return err
	}
	app.watch = w

	for _, folder := range app.ws.FolderPaths() {
		dir := filepath.Join(folder, ".taskgate")
		if err := w.Watch(dir); err != nil {
			// Folders without task configuration are fine.
			if !errors.Is(err, watcher.ErrPathNotExist) {
				app.logger.Warn("watch %s: %v", dir, err)
			}
			continue
		}
	}

	app.watchWg.Add(1)
	go app.watchLoop()
	return nil
}

// watchLoop refreshes the index when task configuration changes.
func (app *Application) watchLoop() {
	defer app.watchWg.Done()

	for {
		select {
		case <-app.ctx.Done():
			return

		case ev, ok := <-app.watch.Events():
			if !ok {
				return
			}
			if filepath.Base(ev.Path) != "tasks.json" {
				continue
			}
			folder, ok := app.ws.FolderFor(ev.Path)
			if !ok {
				continue
			}
			app.logger.Debug("task configuration changed: %s", ev.Path)
			app.index.Invalidate(folder.Path)
			if err := app.publishIndexReady(app.ctx); err != nil {
				app.logger.Error("refresh task index: %v", err)
			}

		case err, ok := <-app.watch.Errors():
			if !ok {
				return
			}
			app.logger.Warn("watcher: %v", err)
		}
	}
}

// AllowAutomaticTasks persists consent without running anything.
func (app *Application) AllowAutomaticTasks(ctx context.Context) error {
	if err := app.gate.Allow(ctx); err != nil {
		return err
	}
	app.logger.Info("automatic tasks allowed for workspace")
	return nil
}

// DisallowAutomaticTasks persists refusal without running anything.
func (app *Application) DisallowAutomaticTasks(ctx context.Context) error {
	if err := app.gate.Disallow(ctx); err != nil {
		return err
	}
	app.logger.Info("automatic tasks disallowed for workspace")
	return nil
}

// Consent returns the current persisted consent state.
func (app *Application) Consent() autorun.Consent {
	return app.gate.Consent()
}

// WaitForTasks blocks until all dispatched executions have completed or
// the context is cancelled.
func (app *Application) WaitForTasks(ctx context.Context) {
	// Pending resolutions first, so late submissions are tracked.
	app.gate.Wait()

	for _, exec := range app.executor.ListExecutions() {
		select {
		case <-exec.Done():
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops the application and releases resources.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		if app.cancel != nil {
			app.cancel()
		}
		if app.watch != nil {
			_ = app.watch.Close()
		}
		app.gate.Wait()
		app.executor.CancelAll()
		app.bus.Close()
		app.ws.Close()
	})
}

// Workspace returns the application's workspace.
func (app *Application) Workspace() *workspace.Workspace {
	return app.ws
}

// Logger returns the application's logger instance.
func (app *Application) Logger() *Logger {
	return app.logger
}

// context returns the run context, or a background context before Run.
func (app *Application) context() context.Context {
	if app.ctx != nil {
		return app.ctx
	}
	return context.Background()
}

// openTaskConfig opens a task configuration file for inspection. With
// $EDITOR set the file opens in the editor; otherwise the path is
// reported so the user can open it themselves.
func (app *Application) openTaskConfig(folder, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		app.logger.Info("task configuration for %s: %s", folder, path)
		fmt.Fprintf(os.Stdout, "Task configuration: %s\n", path)
		return nil
	}

	cmd := osexec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open %s in %s: %w", path, editor, err)
	}
	return nil
}

// executionLogger logs execution lifecycle events.
type executionLogger struct {
	logger *Logger
}

// OnExecutionStarted logs the start of an execution.
func (l *executionLogger) OnExecutionStarted(exec *task.Execution) {
	l.logger.Info("task %q started (%s)", exec.Task.Name, exec.ID)
}

// OnExecutionCompleted logs the completion of an execution.
func (l *executionLogger) OnExecutionCompleted(exec *task.Execution) {
	state := exec.CurrentState()
	switch state {
	case task.ExecutionStateSucceeded:
		l.logger.Info("task %q succeeded", exec.Task.Name)
	case task.ExecutionStateCanceled:
		l.logger.Warn("task %q canceled", exec.Task.Name)
	default:
		l.logger.Warn("task %q %s (exit %d): %v", exec.Task.Name, state, exec.ExitCode, exec.Error)
	}
}
