/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [goal]",
	Short: "Delete a goal and its subtree",
	Long: `Delete a goal together with all of its descendants.

Deletion policies are consulted first; a locked goal anywhere in the subtree
blocks the whole delete. Without an argument an interactive list is shown.
A confirmation prompt is always displayed unless --yes is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

var deleteYes bool

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	var ref, title string
	if len(args) > 0 {
		ref = args[0]
	} else {
		selected, err := selectGoalInteractive(ac, nil, "Select goal to delete")
		if err != nil {
			if err == promptui.ErrInterrupt {
				fmt.Println("Deletion cancelled.")
				return nil
			}
			return err
		}
		ref = selected.ID
		title = selected.Title
	}

	if title == "" {
		title = ref
	}
	if !deleteYes && !confirmOrAbort(fmt.Sprintf("Delete %q and everything under it", title)) {
		return nil
	}

	res, err := app.NewGoalApp(ac).Delete(cmd.Context(), app.DeleteOptions{Ref: ref})
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}

	if res.PolicyViolation {
		fmt.Fprintln(os.Stderr, "Deletion blocked by policy:")
		printPolicyVerdict(res.PolicyErrors, res.PolicyWarnings)
		os.Exit(1)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	if len(res.PolicyWarnings) > 0 {
		printPolicyVerdict(nil, res.PolicyWarnings)
	}
	fmt.Printf("✓ %s\n", res.Message)
	return nil
}
