/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/goal"
	"github.com/stridehq/stride/internal/ui"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new goal",
	Long: `Add a new goal to the workspace.

Goals start as drafts. An event goal aims at a fixed date, a campaign goal
pushes a metric over a window, and a hybrid goal does both.

Examples:
  stride add "Run the Berlin marathon" --kind event --target-date 2027-09-26
  stride add "Grow the newsletter" --kind campaign --metric "Subscribers" --metric-target 5000 --metric-window 90
  stride add "Launch week content" --parent "Grow the newsletter" --priority next`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addBody         string
	addCategory     string
	addKind         string
	addPriority     string
	addParent       string
	addTargetDate   string
	addMetricLabel  string
	addMetricTarget float64
	addMetricBase   float64
	addMetricUnit   string
	addMetricWindow int
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addBody, "body", "b", "", "Longer description of the goal")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Free-form grouping label")
	addCmd.Flags().StringVarP(&addKind, "kind", "k", "", "Goal kind: event, campaign, or hybrid (default event)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority: now, next, or later (default later)")
	addCmd.Flags().StringVar(&addParent, "parent", "", "Attach under an existing goal (id, id prefix, or title)")
	addCmd.Flags().StringVar(&addTargetDate, "target-date", "", "Fixed outcome date, YYYY-MM-DD")
	addCmd.Flags().StringVar(&addMetricLabel, "metric", "", "Measurable outcome label (campaign/hybrid goals)")
	addCmd.Flags().Float64Var(&addMetricTarget, "metric-target", 0, "Metric target value")
	addCmd.Flags().Float64Var(&addMetricBase, "metric-baseline", 0, "Metric starting value")
	addCmd.Flags().StringVar(&addMetricUnit, "metric-unit", "", "Metric unit label")
	addCmd.Flags().IntVar(&addMetricWindow, "metric-window", 0, "Measurement window in days from activation")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	opts := app.CreateOptions{
		Title:     strings.Join(args, " "),
		Body:      addBody,
		Category:  addCategory,
		Kind:      addKind,
		Priority:  addPriority,
		ParentRef: addParent,
	}

	if addTargetDate != "" {
		t, err := time.Parse("2006-01-02", addTargetDate)
		if err != nil {
			return fmt.Errorf("parse --target-date: %w", err)
		}
		opts.TargetDate = &t
	}

	if addMetricLabel != "" {
		opts.Metric = &goal.MetricTarget{
			Label:      addMetricLabel,
			Baseline:   addMetricBase,
			Target:     addMetricTarget,
			Unit:       addMetricUnit,
			WindowDays: addMetricWindow,
		}
	}

	res, err := app.NewGoalApp(ac).Create(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	fmt.Printf("✓ %s\n", res.Message)
	fmt.Printf("  id: %s\n", ui.TruncateID(res.Goal.ID))
	if res.Hint != "" {
		fmt.Printf("  %s\n", res.Hint)
	}
	return nil
}
