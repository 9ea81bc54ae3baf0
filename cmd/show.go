/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/ui"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [goal]",
	Short: "Show one goal in detail",
	Long: `Show a goal with its aggregated progress, subgoals, and dependencies.

The goal reference can be a full id, an id prefix, or (part of) the title.
Without a reference an interactive picker opens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	ref, err := pickedGoalRef(args, ac, "Show which goal?")
	if errors.Is(err, ui.ErrCancelled) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	res, err := app.NewGoalApp(ac).Show(cmd.Context(), ref)
	if err != nil {
		return fmt.Errorf("show goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Println(ui.RenderPanel(res.Goal.Title, goalDetail(res)))

	if len(res.Subgoals) > 0 {
		fmt.Println()
		fmt.Printf("Subgoals (%d):\n", len(res.Subgoals))
		for _, sub := range res.Subgoals {
			fmt.Printf("  %s %s %s\n", ui.StatusIcon(sub.Status), sub.Title, ui.TruncateID(sub.ID))
		}
	}

	if len(res.Incoming) > 0 || len(res.Outgoing) > 0 {
		fmt.Println()
		fmt.Println("Dependencies:")
		for _, e := range res.Incoming {
			fmt.Printf("  ← after %s (%s)\n", edgeEndpoint(ac, e.PrerequisiteID), e.Kind)
		}
		for _, e := range res.Outgoing {
			fmt.Printf("  → before %s (%s)\n", edgeEndpoint(ac, e.DependentID), e.Kind)
		}
	}

	return nil
}

// goalDetail renders the panel body for one goal.
func goalDetail(res *app.GoalResult) string {
	g := res.Goal
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s · %s %s · %s\n", ui.StatusIcon(g.Status), g.Status, ui.KindIcon(g.Kind), g.Kind, ui.PriorityLabel(g.Priority))
	fmt.Fprintf(&sb, "id: %s\n", ui.TruncateID(g.ID))
	if g.Category != "" {
		fmt.Fprintf(&sb, "category: %s\n", g.Category)
	}
	fmt.Fprintf(&sb, "progress: %s %.0f%%\n", ui.ProgressBar(res.Progress, 20), res.Progress*100)

	if g.TargetDate != nil {
		fmt.Fprintf(&sb, "target: %s\n", g.TargetDate.Format("2006-01-02"))
	}
	if g.Metric != nil {
		fmt.Fprintf(&sb, "metric: %s %.0f → %.0f %s", g.Metric.Label, g.Metric.Baseline, g.Metric.Target, g.Metric.Unit)
		if g.Metric.WindowDays > 0 {
			fmt.Fprintf(&sb, " over %dd", g.Metric.WindowDays)
		}
		sb.WriteString("\n")
	}
	if g.SequentialSteps {
		sb.WriteString("runs as a sequential roadmap\n")
	}
	if g.Locked {
		rationale := ""
		if g.LockSnapshot != nil && g.LockSnapshot.Rationale != "" {
			rationale = " (" + g.LockSnapshot.Rationale + ")"
		}
		fmt.Fprintf(&sb, "🔒 locked%s\n", rationale)
	}
	if len(g.Revisions) > 0 {
		fmt.Fprintf(&sb, "revisions: %d\n", len(g.Revisions))
	}
	if confirmed := confirmedEvents(g); confirmed > 0 {
		fmt.Fprintf(&sb, "scheduled sessions: %d\n", confirmed)
	}

	if g.Body != "" {
		sb.WriteString("\n" + ui.WrapText(g.Body, 72) + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func confirmedEvents(g *goal.Goal) int {
	n := 0
	for _, e := range g.Events {
		if e.Status == goal.EventConfirmed {
			n++
		}
	}
	return n
}

// edgeEndpoint resolves an edge endpoint to a readable label.
func edgeEndpoint(ac *app.Context, id string) string {
	if g, ok := ac.Graph.Get(id); ok {
		return fmt.Sprintf("%q", g.Title)
	}
	return ui.TruncateID(id)
}
