package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/charmbracelet/glamour"

	"github.com/traitwatch/traitwatch"
)

// Runner executes a scenario against a fresh observable, printing each
// delivered notification.
type Runner struct {
	logger *slog.Logger
	out    io.Writer

	// RenderMarkdown pretty-prints the scenario description when the
	// output is a terminal.
	RenderMarkdown bool
}

// NewRunner creates a runner writing notifications to out.
func NewRunner(logger *slog.Logger, out io.Writer) *Runner {
	return &Runner{logger: logger, out: out}
}

// Run builds the observable, wires the scenario's subscriptions, and
// plays the mutation script.
func (r *Runner) Run(ctx context.Context, sc *Scenario) error {
	if sc.Description != "" {
		r.printDescription(sc.Description)
	}

	model := &traitwatch.Holder{}
	defer model.Close()

	// Seed before subscribing so the initial values do not notify.
	model.SetMany(sc.Traits)

	for _, w := range sc.Watch {
		spec := w
		label := spec.Group
		if label == "" {
			label = "default"
		}
		_, err := traitwatch.Subscribe(model, spec.Trait, func(n traitwatch.Notification) {
			fmt.Fprintf(r.out, "[%s] %s: %v -> %v\n", label, n.Name, n.Old, n.New)
		}, traitwatch.WithGroup(spec.Group))
		if err != nil {
			return fmt.Errorf("watch %q: %w", spec.Trait, err)
		}
		r.logger.Debug("watching", "trait", spec.Trait, "group", label)
	}

	for i, step := range sc.Script {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, name := range sortedKeys(step.Set) {
			r.logger.Debug("set", "step", i+1, "trait", name)
			model.Set(name, step.Set[name])
		}
		for _, name := range sortedKeys(step.Fire) {
			r.logger.Debug("fire", "step", i+1, "trait", name)
			model.Fire(name, step.Fire[name])
		}
	}
	return nil
}

func (r *Runner) printDescription(md string) {
	if r.RenderMarkdown {
		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err == nil {
			if rendered, err := renderer.Render(md); err == nil {
				fmt.Fprint(r.out, rendered)
				return
			}
		}
	}
	fmt.Fprintln(r.out, md)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
