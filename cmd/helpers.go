/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/ui"
	"github.com/stridehq/stride/internal/workspace"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func osFs() afero.Fs {
	return afero.NewOsFs()
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// requireWorkspace resolves the nearest .stride workspace or exits with a
// pointer to `stride init`.
func requireWorkspace() workspace.Workspace {
	ws, err := workspace.Find(osFs(), mustGetwd())
	if err != nil {
		HandleFatalError("No stride workspace here. Run 'stride init' first.", err)
	}
	return ws
}

// openApp resolves the workspace and opens the shared application context.
// Callers must Close it.
func openApp(ctx context.Context) *app.Context {
	ws := requireWorkspace()
	ac, err := app.NewContext(ctx, ws)
	if err != nil {
		HandleFatalError(fmt.Sprintf("Could not open the goal store: %v", err), err)
	}
	return ac
}

// closeApp closes the context, surfacing close errors only in verbose mode.
func closeApp(ac *app.Context) {
	if err := ac.Close(); err != nil {
		LogError("close app context", err)
	}
}

// failureExit prints a business failure with its hint and exits nonzero.
// In JSON mode the caller has already emitted the result payload.
func failureExit(message, hint string) {
	fmt.Fprintln(os.Stderr, message)
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(1)
}

// printPolicyVerdict lists policy violations and warnings.
func printPolicyVerdict(violations, warnings []string) {
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "  ✗ %s\n", v)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  ⚠ %s\n", w)
	}
}

// withSpinner runs fn behind a terminal spinner. Suppressed in JSON mode so
// the payload stays clean.
func withSpinner(label string, fn func() error) error {
	if isJSON() {
		return fn()
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " " + label
	s.Start()
	err := fn()
	s.Stop()
	fmt.Println()
	return err
}

// confirmOrAbort asks a yes/no question. JSON mode auto-confirms since there
// is no interactive reader on the other end.
func confirmOrAbort(label string) bool {
	if isJSON() {
		return true
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if err != promptui.ErrAbort && err != promptui.ErrInterrupt {
			PrintError("Confirmation prompt failed.", err)
		}
		fmt.Println("Cancelled.")
		return false
	}
	return true
}

// pickedGoalRef returns the goal reference from args, opening the arrow-key
// picker when the command was invoked without one on an interactive terminal.
func pickedGoalRef(args []string, ac *app.Context, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if isJSON() || !ui.IsInteractive() {
		return "", fmt.Errorf("goal reference required")
	}
	return ui.PickGoal(prompt, ac.Graph.AllGoals())
}

// selectGoalInteractive prompts the user to pick a goal matching the filter.
func selectGoalInteractive(ac *app.Context, filter func(*goal.Goal) bool, label string) (*goal.Goal, error) {
	var goals []*goal.Goal
	for _, g := range ac.Graph.AllGoals() {
		if filter == nil || filter(g) {
			goals = append(goals, g)
		}
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("no goals found matching your criteria")
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .Title | cyan }} ({{ .Status }}, {{ .Priority }})`,
		Inactive: `  {{ .Title | faint }} ({{ .Status }}, {{ .Priority }})`,
		Selected: `{{ "✔" | green }} {{ .Title | faint }}`,
	}

	searcher := func(input string, index int) bool {
		g := goals[index]
		input = strings.ToLower(input)
		return strings.Contains(strings.ToLower(g.Title), input) || strings.Contains(g.ID, input)
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     goals,
		Templates: templates,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return goals[i], nil
}
