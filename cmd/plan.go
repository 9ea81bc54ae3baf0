/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/reasoning"
	"github.com/stridehq/stride/internal/ui"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Preview an activation plan",
	Long: `Ask the AI collaborator for a session plan without committing anything.

The proposed working sessions are printed for review; 'stride activate'
schedules them onto the calendar.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	var res *app.LifecycleResult
	err := withSpinner("Planning sessions...", func() error {
		var err error
		res, err = app.NewLifecycleApp(ac).Plan(cmd.Context(), args[0])
		return err
	})
	if err != nil {
		return fmt.Errorf("plan activation: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if res.PolicyViolation {
		fmt.Println("Activation would be blocked by policy:")
		printPolicyVerdict(res.PolicyErrors, res.PolicyWarnings)
		return nil
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("%s\n\n", res.Message)
	fmt.Print(renderSessions(res.Sessions))
	fmt.Printf("\nActivate with: stride activate %s\n", args[0])
	return nil
}

// renderSessions lists proposed working sessions as a table.
func renderSessions(sessions []reasoning.Session) string {
	table := &ui.Table{
		Headers: []string{"START", "DURATION", "SESSION"},
	}
	for _, s := range sessions {
		table.Rows = append(table.Rows, []string{
			s.Start.Format("Mon Jan 2 15:04"),
			s.Duration.String(),
			s.Title,
		})
	}
	return table.Render()
}
