/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/telemetry"
)

// activateCmd represents the activate command
var activateCmd = &cobra.Command{
	Use:   "activate <goal>",
	Short: "Schedule a goal onto the calendar and set it active",
	Long: `Activate a draft goal: plan working sessions with the AI collaborator,
preview them, and on confirmation create the calendar events.

The goal only turns active when every session is scheduled. If the calendar
fails partway, the goal stays draft and the sessions created so far are
reported so the retry can pick up from there.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivate,
}

var activateYes bool

func init() {
	rootCmd.AddCommand(activateCmd)

	activateCmd.Flags().BoolVarP(&activateYes, "yes", "y", false, "Schedule without previewing the plan")
}

func runActivate(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	lapp := app.NewLifecycleApp(ac)
	opts := app.ActivateOptions{Ref: args[0]}

	// Preview first so the user confirms actual sessions, not a promise.
	if !activateYes && !isJSON() {
		planned, err := planForPreview(cmd, lapp, args[0])
		if err != nil {
			return err
		}
		if planned == nil {
			return nil
		}
		opts.Plan = planned.Sessions
	}

	var res *app.LifecycleResult
	err := withSpinner("Scheduling sessions...", func() error {
		var err error
		res, err = lapp.Activate(cmd.Context(), opts)
		return err
	})
	if err != nil {
		return fmt.Errorf("activate goal: %w", err)
	}
	if res.Success {
		trackActivation(ac, len(res.Sessions))
	}

	if isJSON() {
		return printJSON(res)
	}
	if res.PolicyViolation {
		fmt.Fprintln(os.Stderr, "Activation blocked by policy:")
		printPolicyVerdict(res.PolicyErrors, res.PolicyWarnings)
		os.Exit(1)
	}
	if !res.Success {
		if len(res.PartialConfirmed) > 0 {
			fmt.Fprintln(os.Stderr, res.Message)
			for _, link := range res.PartialConfirmed {
				fmt.Fprintf(os.Stderr, "  ✓ %s (%s)\n", link.Title, link.Start.Format("Mon Jan 2 15:04"))
			}
			fmt.Fprintf(os.Stderr, "  ✗ %s\n", res.FailedSession)
			failureExit("", res.Hint)
		}
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("✓ %s\n", res.Message)
	return nil
}

// trackActivation records a confirmed activation; only the session count
// leaves the machine.
func trackActivation(ac *app.Context, sessions int) {
	client := newTelemetryClient(ac.Workspace.Dir)
	defer func() { _ = client.Close() }()
	client.Track(telemetry.EventActivationConfirmed, telemetry.Properties{"sessions": sessions})
}

// planForPreview runs the planning call and the confirmation prompt. A nil
// result with nil error means the user declined or a failure was printed.
func planForPreview(cmd *cobra.Command, lapp *app.LifecycleApp, ref string) (*app.LifecycleResult, error) {
	var planned *app.LifecycleResult
	err := withSpinner("Planning sessions...", func() error {
		var err error
		planned, err = lapp.Plan(cmd.Context(), ref)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("plan activation: %w", err)
	}

	if planned.PolicyViolation {
		fmt.Fprintln(os.Stderr, "Activation blocked by policy:")
		printPolicyVerdict(planned.PolicyErrors, planned.PolicyWarnings)
		os.Exit(1)
	}
	if !planned.Success {
		failureExit(planned.Message, planned.Hint)
	}

	fmt.Print(renderSessions(planned.Sessions))
	fmt.Println()
	if !confirmOrAbort(fmt.Sprintf("Schedule these %d session(s)", len(planned.Sessions))) {
		return nil, nil
	}
	return planned, nil
}
