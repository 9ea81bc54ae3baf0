/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
)

// regenerateCmd represents the regenerate command
var regenerateCmd = &cobra.Command{
	Use:   "regenerate <goal>",
	Short: "Reframe a goal from its current state",
	Long: `Ask the AI collaborator to rewrite a goal's title and body in light of
its subgoals and progress so far. The previous framing is kept in the
audit trail. Locked goals cannot be regenerated.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegenerate,
}

var regenerateYes bool

func init() {
	rootCmd.AddCommand(regenerateCmd)

	regenerateCmd.Flags().BoolVarP(&regenerateYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	if !regenerateYes && !isJSON() {
		if !confirmOrAbort("Rewrite this goal's title and body") {
			return nil
		}
	}

	var res *app.LifecycleResult
	err := withSpinner("Reframing...", func() error {
		var err error
		res, err = app.NewLifecycleApp(ac).Regenerate(cmd.Context(), args[0])
		return err
	})
	if err != nil {
		return fmt.Errorf("regenerate goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("✓ %s\n", res.Message)
	if res.Goal != nil && res.Goal.Body != "" {
		fmt.Printf("\n%s\n", res.Goal.Body)
	}
	return nil
}
