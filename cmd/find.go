/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/ui"
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search goals by meaning",
	Long: `Search goals semantically using the configured embedding model.

Goals without a stored vector still match by title substring, so the search
works (less well) even when no embedder is configured.

Examples:
  stride find "fitness"
  stride find "things blocking the launch" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

var findLimit int

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().IntVar(&findLimit, "limit", 0, "Maximum matches to return (default from config)")
}

func runFind(cmd *cobra.Command, args []string) error {
	ac := openApp(cmd.Context())
	defer closeApp(ac)

	res, err := app.NewGoalApp(ac).Find(cmd.Context(), app.FindOptions{
		Query: strings.Join(args, " "),
		Limit: findLimit,
	})
	if err != nil {
		return fmt.Errorf("find goals: %w", err)
	}

	if isJSON() {
		return printJSON(res)
	}
	if !res.Success {
		failureExit(res.Message, res.Hint)
	}

	if len(res.Matches) == 0 {
		fmt.Println(res.Message)
		if res.Hint != "" {
			fmt.Println(res.Hint)
		}
		return nil
	}

	table := &ui.Table{
		Headers: []string{"SCORE", "ID", "STATUS", "TITLE"},
	}
	for _, m := range res.Matches {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%.2f", m.Score),
			ui.TruncateID(m.Goal.ID),
			string(m.Goal.Status),
			m.Goal.Title,
		})
	}
	fmt.Print(table.Render())
	return nil
}
