/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/ui"
)

// timelineCmd represents the timeline command
var timelineCmd = &cobra.Command{
	Use:   "timeline [goal]",
	Short: "Show what lands when",
	Long: `Project goals onto a date window: scheduled sessions, forecast entries,
roadmap phases, and metric checkpoints.

Without a goal argument every non-archived goal in the window contributes.

Examples:
  stride timeline
  stride timeline --days 30
  stride timeline "Berlin marathon" --from 2027-09-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimeline,
}

var (
	timelineFrom string
	timelineDays int
)

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVar(&timelineFrom, "from", "", "Window start, YYYY-MM-DD (default today)")
	timelineCmd.Flags().IntVar(&timelineDays, "days", 0, "Window length in days (default 14)")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	opts := app.TimelineOptions{Days: timelineDays}
	if len(args) > 0 {
		opts.Ref = args[0]
	}
	if timelineFrom != "" {
		t, err := time.Parse("2006-01-02", timelineFrom)
		if err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
		opts.From = t
	}

	res, err := app.NewTimelineApp(ac).Window(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("project timeline: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	if len(res.Entries) == 0 {
		fmt.Println(res.Message)
		if res.Hint != "" {
			fmt.Println(res.Hint)
		}
		return nil
	}

	fmt.Print(ui.RenderTimeline(res.Entries, res.Horizon))
	return nil
}
