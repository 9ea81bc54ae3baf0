/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/ui"
)

// stepCmd groups the sequential roadmap commands
var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Run a goal as a step-by-step roadmap",
	Long: `Run a goal as a sequential roadmap: exactly one current step at a time,
with the next step proposed by the AI collaborator when the current one is
done. Start a roadmap with 'stride step start', then advance it with
'stride step done'.`,
}

// stepStartCmd seeds the first step of a roadmap
var stepStartCmd = &cobra.Command{
	Use:   "start <goal>",
	Short: "Start (or re-seed) a roadmap on a goal",
	Long: `Turn a goal into a sequential roadmap and create its first step.

On a goal whose roadmap lost its current step, start proposes a fresh one
from the steps completed so far. Use --notes to steer the proposal.`,
	Args: cobra.ExactArgs(1),
	RunE: runStepStart,
}

// stepDoneCmd completes the current step
var stepDoneCmd = &cobra.Command{
	Use:   "done <goal>",
	Short: "Complete the current step and get the next one",
	Long: `Complete the roadmap's current step. The AI collaborator proposes the
next step; on the final step the whole goal completes instead.

The goal reference may be the roadmap goal or the step itself.`,
	Args: cobra.ExactArgs(1),
	RunE: runStepDone,
}

var stepNotes string

func init() {
	rootCmd.AddCommand(stepCmd)
	stepCmd.AddCommand(stepStartCmd)
	stepCmd.AddCommand(stepDoneCmd)

	stepStartCmd.Flags().StringVar(&stepNotes, "notes", "", "Steering notes passed to the collaborator")
}

func runStepStart(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	var res *app.StepResult
	err := withSpinner("Proposing the first step...", func() error {
		var err error
		res, err = app.NewStepApp(ac).Start(cmd.Context(), args[0], stepNotes)
		return err
	})
	if err != nil {
		return fmt.Errorf("start roadmap: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("✓ %s\n", res.Message)
	printNextStep(res.Next)
	return nil
}

func runStepDone(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	var res *app.StepResult
	err := withSpinner("Proposing the next step...", func() error {
		var err error
		res, err = app.NewStepApp(ac).Advance(cmd.Context(), args[0])
		return err
	})
	if err != nil {
		return fmt.Errorf("advance roadmap: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	if res.Warning != "" {
		fmt.Printf("⚠ %s\n", res.Warning)
	}
	fmt.Printf("✓ %s\n", res.Message)
	printNextStep(res.Next)
	if res.Hint != "" {
		fmt.Printf("  %s\n", res.Hint)
	}
	return nil
}

// printNextStep shows the new current step with its guidance.
func printNextStep(next *goal.Goal) {
	if next == nil {
		return
	}
	fmt.Printf("\n▶ %s\n", next.Title)
	if next.Body != "" {
		fmt.Println(ui.WrapText(next.Body, 72))
	}
}
