package autorun

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/taskgate/internal/integration/task"
)

// Gate decides whether tasks flagged to run on folder open actually
// execute, gated behind a one-time per-workspace consent. The consent
// flag is owned by the store; the gate re-reads it on every entry point
// and never caches it.
type Gate struct {
	store    Store
	index    Index
	notifier Notifier

	// pending tracks in-flight asynchronous resolutions so callers can
	// drain them on shutdown.
	pending sync.WaitGroup
}

// New creates a consent gate over the given collaborators.
func New(store Store, index Index, notifier Notifier) *Gate {
	return &Gate{
		store:    store,
		index:    index,
		notifier: notifier,
	}
}

// Consent returns the current persisted consent state.
func (g *Gate) Consent() Consent {
	value, ok := g.store.Bool(AllowAutomaticKey)
	switch {
	case !ok:
		return ConsentUndecided
	case value:
		return ConsentAllowed
	default:
		return ConsentDisallowed
	}
}

// TryRunTasks is the folder-open entry point. Only when consent is
// allowed does it query the index and dispatch the discovered automatic
// tasks. It never prompts; prompting happens through
// PromptForPermission when the task index becomes ready.
func (g *Gate) TryRunTasks(ctx context.Context) error {
	if g.Consent() != ConsentAllowed {
		return nil
	}

	results, err := g.index.WorkspaceTasks(ctx, task.ReasonFolderOpen)
	if err != nil {
		return fmt.Errorf("query workspace tasks: %w", err)
	}

	refs, _ := FindAutoTasks(g.index, results)
	if len(refs) == 0 {
		return nil
	}

	g.dispatch(ctx, refs)
	return nil
}

// PromptForPermission is invoked by the owner of the task index once
// its result is available. If consent is already decided it is a no-op;
// the flag, once set, is authoritative and never re-solicited. If no
// automatic tasks were discovered there is nothing to ask about. A
// dismissed prompt records no decision and runs nothing, so the user is
// asked again on a later occasion.
func (g *Gate) PromptForPermission(ctx context.Context, results map[string]*task.FolderTasks) error {
	if g.Consent() != ConsentUndecided {
		return nil
	}

	refs, names := FindAutoTasks(g.index, results)
	if len(names) == 0 {
		return nil
	}

	message := fmt.Sprintf(
		"This workspace has tasks (%s) configured to run automatically when it is opened. Allow them to run?",
		strings.Join(names, ", "),
	)

	choice, err := g.notifier.Prompt(ctx, SeverityInfo, message,
		[]Choice{ChoiceAllow, ChoiceDisallow, ChoiceOpenConfig})
	if err != nil {
		return fmt.Errorf("prompt for automatic tasks: %w", err)
	}

	switch choice {
	case ChoiceAllow:
		if err := g.store.SetBool(AllowAutomaticKey, true); err != nil {
			return fmt.Errorf("persist consent: %w", err)
		}
		g.dispatch(ctx, refs)

	case ChoiceDisallow:
		if err := g.store.SetBool(AllowAutomaticKey, false); err != nil {
			return fmt.Errorf("persist consent: %w", err)
		}

	case ChoiceOpenConfig:
		folder := firstFolder(results)
		if folder != "" {
			return g.index.OpenConfig(ctx, folder)
		}

	case ChoiceDismissed:
		// No decision recorded; remain undecided.
	}

	return nil
}

// Allow persists consent without running anything. Exposed as a direct
// user action outside the prompt flow.
func (g *Gate) Allow(ctx context.Context) error {
	return g.store.SetBool(AllowAutomaticKey, true)
}

// Disallow persists refusal without running anything. Exposed as a
// direct user action outside the prompt flow.
func (g *Gate) Disallow(ctx context.Context) error {
	return g.store.SetBool(AllowAutomaticKey, false)
}

// Wait blocks until all in-flight asynchronous resolutions from prior
// dispatches have completed.
func (g *Gate) Wait() {
	g.pending.Wait()
}

// dispatch submits every reference to the runner. Resolved tasks are
// submitted immediately in discovery order; pending references resolve
// concurrently and submit only when resolution yields a task. A failed
// submission never blocks the rest of the batch, and in-flight
// resolutions are not cancelled.
func (g *Gate) dispatch(ctx context.Context, refs []TaskRef) {
	for _, ref := range refs {
		if ref.IsResolved() {
			// Run outcomes are the runner's concern.
			_ = g.index.Run(ctx, ref.Task)
			continue
		}

		resolve := ref.Resolve
		g.pending.Add(1)
		go func() {
			defer g.pending.Done()
			t, err := resolve(ctx)
			if err != nil || t == nil {
				// Resolution miss: skip silently.
				return
			}
			_ = g.index.Run(ctx, t)
		}()
	}
}

// firstFolder returns the first folder key in stable order.
func firstFolder(results map[string]*task.FolderTasks) string {
	folders := sortedFolders(results)
	if len(folders) == 0 {
		return ""
	}
	return folders[0]
}
