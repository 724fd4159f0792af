package task

import (
	"bytes"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecutorConfig configures the task executor.
type ExecutorConfig struct {
	// DefaultShell is the shell to use for shell tasks.
	DefaultShell string

	// DefaultShellArgs are the default arguments for the shell.
	DefaultShellArgs []string

	// DefaultEnv are environment variables to add to all tasks.
	DefaultEnv map[string]string

	// WorkingDir is the default working directory.
	WorkingDir string

	// MaxConcurrent is the maximum concurrent task executions.
	MaxConcurrent int
}

// DefaultExecutorConfig returns sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	return ExecutorConfig{
		DefaultShell:     shell,
		DefaultShellArgs: []string{"-c"},
		MaxConcurrent:    4,
	}
}

// ExecutionState represents the state of a task execution.
type ExecutionState string

const (
	// ExecutionStatePending indicates the task is waiting to run.
	ExecutionStatePending ExecutionState = "pending"
	// ExecutionStateRunning indicates the task is currently running.
	ExecutionStateRunning ExecutionState = "running"
	// ExecutionStateSucceeded indicates the task completed successfully.
	ExecutionStateSucceeded ExecutionState = "succeeded"
	// ExecutionStateFailed indicates the task failed.
	ExecutionStateFailed ExecutionState = "failed"
	// ExecutionStateCanceled indicates the task was canceled.
	ExecutionStateCanceled ExecutionState = "canceled"
)

// Execution represents a running or completed task execution.
type Execution struct {
	// ID is a unique identifier for this execution.
	ID string

	// Task is the task being executed.
	Task *Task

	// State is the current execution state.
	State ExecutionState

	// StartTime is when execution started.
	StartTime time.Time

	// EndTime is when execution ended.
	EndTime time.Time

	// ExitCode is the process exit code (-1 if not yet finished).
	ExitCode int

	// Error is any error that occurred.
	Error error

	// output accumulates combined stdout/stderr.
	output bytes.Buffer

	// cancel cancels the execution context.
	cancel context.CancelFunc

	// done is closed when execution completes.
	done chan struct{}

	// doneOnce ensures done is closed exactly once.
	doneOnce sync.Once

	// mu protects state changes.
	mu sync.RWMutex
}

// Done returns a channel closed when the execution completes.
func (x *Execution) Done() <-chan struct{} {
	return x.done
}

// Cancel cancels the execution.
func (x *Execution) Cancel() {
	if x.cancel != nil {
		x.cancel()
	}
}

// CurrentState returns the execution state.
func (x *Execution) CurrentState() ExecutionState {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.State
}

// Output returns the combined output captured so far.
func (x *Execution) Output() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.output.String()
}

// executionOutput serializes process writes with Output reads.
type executionOutput struct {
	exec *Execution
}

func (w executionOutput) Write(p []byte) (int, error) {
	w.exec.mu.Lock()
	defer w.exec.mu.Unlock()
	return w.exec.output.Write(p)
}

// ExecutionListener receives execution lifecycle events.
type ExecutionListener interface {
	// OnExecutionStarted is called when execution starts.
	OnExecutionStarted(exec *Execution)

	// OnExecutionCompleted is called when execution completes.
	OnExecutionCompleted(exec *Execution)
}

// Executor manages task execution.
type Executor struct {
	config ExecutorConfig

	// executions tracks active executions.
	executions   map[string]*Execution
	executionsMu sync.RWMutex

	// sem limits concurrent executions.
	sem chan struct{}

	// listeners receive execution events.
	listeners   []ExecutionListener
	listenersMu sync.RWMutex
}

// NewExecutor creates a new task executor.
func NewExecutor(config ExecutorConfig) *Executor {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	if config.DefaultShell == "" {
		config.DefaultShell = "/bin/sh"
	}
	if len(config.DefaultShellArgs) == 0 {
		config.DefaultShellArgs = []string{"-c"}
	}

	return &Executor{
		config:     config,
		executions: make(map[string]*Execution),
		sem:        make(chan struct{}, config.MaxConcurrent),
	}
}

// AddListener adds an execution listener.
func (e *Executor) AddListener(listener ExecutionListener) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Execute runs a task and returns the execution handle.
func (e *Executor) Execute(ctx context.Context, t *Task) (*Execution, error) {
	if t == nil {
		return nil, fmt.Errorf("execute: nil task")
	}
	if t.Command == "" {
		return nil, fmt.Errorf("execute %q: empty command", t.Name)
	}

	execCtx, cancel := context.WithCancel(ctx)

	exec := &Execution{
		ID:       uuid.New().String(),
		Task:     t,
		State:    ExecutionStatePending,
		ExitCode: -1,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	e.executionsMu.Lock()
	e.executions[exec.ID] = exec
	e.executionsMu.Unlock()

	go e.runExecution(execCtx, exec)

	return exec, nil
}

// ExecuteSync runs a task synchronously and waits for completion.
func (e *Executor) ExecuteSync(ctx context.Context, t *Task) (*Execution, error) {
	exec, err := e.Execute(ctx, t)
	if err != nil {
		return nil, err
	}

	<-exec.Done()
	return exec, nil
}

// GetExecution returns an execution by ID.
func (e *Executor) GetExecution(id string) (*Execution, bool) {
	e.executionsMu.RLock()
	defer e.executionsMu.RUnlock()
	exec, ok := e.executions[id]
	return exec, ok
}

// ListExecutions returns all tracked executions.
func (e *Executor) ListExecutions() []*Execution {
	e.executionsMu.RLock()
	defer e.executionsMu.RUnlock()

	result := make([]*Execution, 0, len(e.executions))
	for _, exec := range e.executions {
		result = append(result, exec)
	}
	return result
}

// CancelAll cancels all active executions.
func (e *Executor) CancelAll() {
	e.executionsMu.RLock()
	executions := make([]*Execution, 0, len(e.executions))
	for _, exec := range e.executions {
		executions = append(executions, exec)
	}
	e.executionsMu.RUnlock()

	for _, exec := range executions {
		exec.Cancel()
	}
}

// runExecution executes the task process and tracks its lifecycle.
func (e *Executor) runExecution(ctx context.Context, exec *Execution) {
	defer exec.doneOnce.Do(func() { close(exec.done) })

	// Acquire concurrency slot.
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		e.finish(exec, ExecutionStateCanceled, ctx.Err())
		return
	}

	cmd := e.buildCommand(ctx, exec.Task)
	out := executionOutput{exec: exec}
	cmd.Stdout = out
	cmd.Stderr = out

	exec.mu.Lock()
	exec.State = ExecutionStateRunning
	exec.StartTime = time.Now()
	exec.mu.Unlock()

	e.notifyStarted(exec)

	err := cmd.Run()

	switch {
	case ctx.Err() != nil:
		e.finish(exec, ExecutionStateCanceled, ctx.Err())
	case err != nil:
		if exitErr, ok := err.(*osexec.ExitError); ok {
			exec.mu.Lock()
			exec.ExitCode = exitErr.ExitCode()
			exec.mu.Unlock()
		}
		e.finish(exec, ExecutionStateFailed, err)
	default:
		exec.mu.Lock()
		exec.ExitCode = 0
		exec.mu.Unlock()
		e.finish(exec, ExecutionStateSucceeded, nil)
	}
}

// buildCommand constructs the process command for a task.
func (e *Executor) buildCommand(ctx context.Context, t *Task) *osexec.Cmd {
	var cmd *osexec.Cmd
	if t.Type == TaskTypeShell {
		args := append(append([]string{}, e.config.DefaultShellArgs...), shellLine(t))
		cmd = osexec.CommandContext(ctx, e.config.DefaultShell, args...)
	} else {
		cmd = osexec.CommandContext(ctx, t.Command, t.Args...)
	}

	cwd := t.Cwd
	if cwd == "" {
		cwd = e.config.WorkingDir
	}
	cmd.Dir = cwd

	env := os.Environ()
	for k, v := range e.config.DefaultEnv {
		env = append(env, k+"="+v)
	}
	for k, v := range t.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	return cmd
}

// shellLine joins a shell task's command and args into a single line.
func shellLine(t *Task) string {
	line := t.Command
	for _, arg := range t.Args {
		line += " " + arg
	}
	return line
}

// finish records the terminal state and notifies listeners.
func (e *Executor) finish(exec *Execution, state ExecutionState, err error) {
	exec.mu.Lock()
	exec.State = state
	exec.EndTime = time.Now()
	exec.Error = err
	exec.mu.Unlock()

	e.notifyCompleted(exec)
}

// notifyStarted informs listeners that an execution started.
func (e *Executor) notifyStarted(exec *Execution) {
	e.listenersMu.RLock()
	listeners := append([]ExecutionListener{}, e.listeners...)
	e.listenersMu.RUnlock()

	for _, l := range listeners {
		l.OnExecutionStarted(exec)
	}
}

// notifyCompleted informs listeners that an execution completed.
func (e *Executor) notifyCompleted(exec *Execution) {
	e.listenersMu.RLock()
	listeners := append([]ExecutionListener{}, e.listeners...)
	e.listenersMu.RUnlock()

	for _, l := range listeners {
		l.OnExecutionCompleted(exec)
	}
}
