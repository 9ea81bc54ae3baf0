/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/internal/ui"
)

// breakdownCmd represents the breakdown command
var breakdownCmd = &cobra.Command{
	Use:   "breakdown <goal>",
	Short: "Break a goal down into subgoals",
	Long: `Ask the AI collaborator to decompose a goal into a dependency-ordered
subgoal tree, preview the proposal, and materialize it on confirmation.

Each goal only breaks down once; delete the subgoals first to redo it.

Examples:
  stride breakdown "Run the Berlin marathon"
  stride breakdown 1a2b3c4d --notes "keep it under six subgoals"
  stride breakdown 1a2b3c4d --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runBreakdown,
}

var (
	breakdownNotes string
	breakdownYes   bool
)

func init() {
	rootCmd.AddCommand(breakdownCmd)

	breakdownCmd.Flags().StringVar(&breakdownNotes, "notes", "", "Steering notes passed to the collaborator")
	breakdownCmd.Flags().BoolVarP(&breakdownYes, "yes", "y", false, "Apply the proposal without previewing")
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	bapp := app.NewBreakdownApp(ac)
	opts := app.BreakdownOptions{Ref: args[0], Notes: breakdownNotes}

	reqCtx, cancelReq := context.WithCancel(cmd.Context())
	defer cancelReq()

	var proposed *app.BreakdownResult
	propose := func() error {
		var err error
		proposed, err = bapp.Propose(reqCtx, opts)
		return err
	}

	var err error
	if ui.IsInteractive() && !isJSON() {
		err = ui.RunWait("Asking the collaborator for a breakdown", cancelReq, propose)
	} else {
		err = withSpinner("Proposing breakdown...", propose)
	}
	if errors.Is(err, ui.ErrCancelled) {
		fmt.Println("Breakdown cancelled.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("propose breakdown: %w", err)
	}

	if !proposed.Success {
		if isJSON() {
			return printJSON(proposed)
		}
		failureExit(proposed.Message, proposed.Hint)
	}

	nodeCount := proposed.Tree.Count()
	if !isJSON() {
		fmt.Println(ui.RenderBreakdownTree(proposed.Tree))
	}

	if !breakdownYes && !isJSON() {
		if !confirmOrAbort(fmt.Sprintf("Create these %d subgoal(s) under %q", nodeCount, proposed.Goal.Title)) {
			trackBreakdownOutcome(ac, nodeCount, false)
			return nil
		}
	}

	applied, err := bapp.Apply(cmd.Context(), proposed.Goal.ID, proposed.Tree)
	if err != nil {
		return fmt.Errorf("apply breakdown: %w", err)
	}
	trackBreakdownOutcome(ac, nodeCount, applied.Success)

	if isJSON() {
		return printJSON(applied)
	}
	if !applied.Success {
		failureExit(applied.Message, applied.Hint)
	}

	fmt.Printf("✓ %s\n", applied.Message)
	if applied.Hint != "" {
		fmt.Printf("  %s\n", applied.Hint)
	}
	return nil
}

// trackBreakdownOutcome records whether a proposal was accepted; content
// never leaves the machine.
func trackBreakdownOutcome(ac *app.Context, nodeCount int, accepted bool) {
	client := newTelemetryClient(ac.Workspace.Dir)
	defer func() { _ = client.Close() }()
	telemetry.TrackBreakdown(client, viper.GetString("llm.provider"), nodeCount, accepted)
}
