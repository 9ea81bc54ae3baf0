/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
)

// unlockCmd represents the unlock command
var unlockCmd = &cobra.Command{
	Use:   "unlock <goal>",
	Short: "Unfreeze a locked goal",
	Long: `Unlock a goal so its content can change again. The unlock is recorded
in the goal's audit trail; pass --reason to say why.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnlock,
}

var unlockReason string

func init() {
	rootCmd.AddCommand(unlockCmd)

	unlockCmd.Flags().StringVar(&unlockReason, "reason", "", "Audit note recorded with the unlock")
}

func runUnlock(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	res, err := app.NewLifecycleApp(ac).Unlock(cmd.Context(), args[0], unlockReason)
	if err != nil {
		return fmt.Errorf("unlock goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("🔓 %s\n", res.Message)
	return nil
}
