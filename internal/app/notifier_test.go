package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dshills/taskgate/internal/integration/task/autorun"
)

var promptChoices = []autorun.Choice{
	autorun.ChoiceAllow,
	autorun.ChoiceDisallow,
	autorun.ChoiceOpenConfig,
}

func TestPromptSelection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  autorun.Choice
	}{
		{name: "first choice", input: "1\n", want: autorun.ChoiceAllow},
		{name: "second choice", input: "2\n", want: autorun.ChoiceDisallow},
		{name: "third choice", input: "3\n", want: autorun.ChoiceOpenConfig},
		{name: "empty input dismisses", input: "\n", want: autorun.ChoiceDismissed},
		{name: "out of range dismisses", input: "9\n", want: autorun.ChoiceDismissed},
		{name: "non-numeric dismisses", input: "yes\n", want: autorun.ChoiceDismissed},
		{name: "eof dismisses", input: "", want: autorun.ChoiceDismissed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			notifier := NewNotifierWith(strings.NewReader(tt.input), &out)

			got, err := notifier.Prompt(context.Background(), autorun.SeverityInfo, "Allow?", promptChoices)
			if err != nil {
				t.Fatalf("Prompt() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Prompt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromptRendersMessageAndChoices(t *testing.T) {
	var out bytes.Buffer
	notifier := NewNotifierWith(strings.NewReader("1\n"), &out)

	_, err := notifier.Prompt(context.Background(), autorun.SeverityInfo, "Allow automatic tasks?", promptChoices)
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}

	rendered := out.String()
	if !strings.Contains(rendered, "Allow automatic tasks?") {
		t.Errorf("output %q missing the message", rendered)
	}
	for _, want := range []string{"[1] Allow and run", "[2] Don't allow", "[3] Open tasks.json"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("output %q missing choice %q", rendered, want)
		}
	}
}

func TestPromptNonInteractiveDismisses(t *testing.T) {
	notifier := &TerminalNotifier{
		in:          strings.NewReader("1\n"),
		out:         &bytes.Buffer{},
		interactive: false,
	}

	got, err := notifier.Prompt(context.Background(), autorun.SeverityInfo, "Allow?", promptChoices)
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if got != autorun.ChoiceDismissed {
		t.Errorf("non-interactive Prompt() = %v, want dismissed", got)
	}
}
