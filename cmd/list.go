/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/ui"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	Long: `List goals in the workspace, grouped by status.

Roadmap steps are hidden by default; they belong to their parent goal.
Use --steps to show them.

Examples:
  stride list                  # All goals
  stride list --status active  # Only active goals
  stride list --kind campaign  # Only campaigns
  stride list --steps          # Include roadmap steps`,
	RunE: runList,
}

var (
	listStatus string
	listKind   string
	listSteps  bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: draft, active, completed, archived")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind: event, campaign, hybrid")
	listCmd.Flags().BoolVar(&listSteps, "steps", false, "Include roadmap steps")
}

func runList(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	goals, err := app.NewGoalApp(ac).List(cmd.Context(), app.ListOptions{
		Status:       listStatus,
		Kind:         listKind,
		IncludeSteps: listSteps,
	})
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}

	if isJSON() {
		return printJSON(goals)
	}

	if len(goals) == 0 {
		if listStatus != "" || listKind != "" {
			cmd.Println("No goals match those filters.")
		} else {
			cmd.Println("No goals yet.")
			cmd.Println("Add one with: stride add \"Your goal\"")
		}
		return nil
	}

	if isVerbose() {
		fmt.Print(ui.RenderGoalListVerbose(goals))
	} else {
		fmt.Print(ui.RenderGoalList(goals))
	}
	return nil
}
