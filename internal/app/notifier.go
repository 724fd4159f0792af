package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/dshills/taskgate/internal/integration/task/autorun"
)

// TerminalNotifier presents prompts on the controlling terminal. On a
// non-interactive stdin every prompt reads as dismissed, so automatic
// tasks stay opt-in when there is nobody to ask.
type TerminalNotifier struct {
	in  io.Reader
	out io.Writer

	// interactive is whether stdin is a terminal.
	interactive bool
}

// NewTerminalNotifier creates a notifier over stdin/stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewNotifierWith creates a notifier over explicit streams, treated as
// interactive. Used by tests.
func NewNotifierWith(in io.Reader, out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{in: in, out: out, interactive: true}
}

// Prompt presents the message with numbered choices and returns the
// selected one. Empty input, EOF, or an unrecognized answer dismisses
// the prompt.
func (n *TerminalNotifier) Prompt(ctx context.Context, severity autorun.Severity, message string, choices []autorun.Choice) (autorun.Choice, error) {
	if !n.interactive {
		return autorun.ChoiceDismissed, nil
	}
	if err := ctx.Err(); err != nil {
		return autorun.ChoiceDismissed, err
	}

	fmt.Fprintf(n.out, "%s%s\n", severityTag(severity), message)
	for i, choice := range choices {
		fmt.Fprintf(n.out, "  [%d] %s\n", i+1, choice)
	}
	fmt.Fprint(n.out, "Choice (enter to dismiss): ")

	reader := bufio.NewReader(n.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		// EOF without input counts as a dismissal, not a failure.
		return autorun.ChoiceDismissed, nil
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return autorun.ChoiceDismissed, nil
	}

	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 1 || idx > len(choices) {
		return autorun.ChoiceDismissed, nil
	}
	return choices[idx-1], nil
}

// severityTag returns the display prefix for a severity.
func severityTag(severity autorun.Severity) string {
	switch severity {
	case autorun.SeverityWarning:
		return "[warn] "
	case autorun.SeverityError:
		return "[error] "
	default:
		return ""
	}
}

// Ensure TerminalNotifier implements the prompt surface.
var _ autorun.Notifier = (*TerminalNotifier)(nil)
