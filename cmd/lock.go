/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
)

// lockCmd represents the lock command
var lockCmd = &cobra.Command{
	Use:   "lock <goal>",
	Short: "Freeze a goal's content",
	Long: `Lock a goal so its title, body, and progress cannot change.

A snapshot of the content is captured with a rationale from the AI
collaborator (or a plain default when it is unavailable). Locking an already
locked goal does nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runLock,
}

func init() {
	rootCmd.AddCommand(lockCmd)
}

func runLock(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	var res *app.LifecycleResult
	err := withSpinner("Locking...", func() error {
		var err error
		res, err = app.NewLifecycleApp(ac).Lock(cmd.Context(), args[0])
		return err
	})
	if err != nil {
		return fmt.Errorf("lock goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("🔒 %s\n", res.Message)
	if res.Snapshot != nil && res.Snapshot.Rationale != "" {
		fmt.Printf("   %s\n", res.Snapshot.Rationale)
	}
	return nil
}
