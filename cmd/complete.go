/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/telemetry"
)

// completeCmd represents the complete command
var completeCmd = &cobra.Command{
	Use:   "complete <goal>",
	Short: "Mark a goal as completed",
	Long: `Complete a goal: progress snaps to 100% and parent goals update their
aggregate. Completing a roadmap step from here behaves like 'stride step done'
without proposing a successor.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	res, err := app.NewLifecycleApp(ac).Complete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("complete goal: %w", err)
	}
	if res.Success && res.Goal != nil {
		trackCompletion(ac, res.Goal.IsStep())
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

// trackCompletion records that a goal finished, without its content. The
// step flag separates roadmap progress from standalone completions.
func trackCompletion(ac *app.Context, step bool) {
	client := newTelemetryClient(ac.Workspace.Dir)
	defer func() { _ = client.Close() }()
	client.Track(telemetry.EventGoalCompleted, telemetry.Properties{"step": step})
}
