/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
)

// deactivateCmd represents the deactivate command
var deactivateCmd = &cobra.Command{
	Use:   "deactivate <goal>",
	Short: "Take an active goal off the calendar",
	Long: `Deactivate an active goal, cancelling its pending calendar events.

The goal returns to draft by default; --to archived shelves it instead.
Confirmed past sessions are kept for the record.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeactivate,
}

var (
	deactivateTo     string
	deactivateReason string
)

func init() {
	rootCmd.AddCommand(deactivateCmd)

	deactivateCmd.Flags().StringVar(&deactivateTo, "to", "", "Target status: draft (default) or archived")
	deactivateCmd.Flags().StringVar(&deactivateReason, "reason", "", "Audit note recorded on the goal")
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	res, err := app.NewLifecycleApp(ac).Deactivate(cmd.Context(), app.DeactivateOptions{
		Ref:       args[0],
		To:        strings.TrimSpace(deactivateTo),
		Rationale: deactivateReason,
	})
	if err != nil {
		return fmt.Errorf("deactivate goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("✓ %s\n", res.Message)
	return nil
}
