/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/workspace"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a stride workspace in the current directory",
	Long: `Initialize a .stride workspace in the current directory.

This creates:
  • .stride/stride.db    - SQLite store for goals, journal, and embeddings
  • .stride/templates/   - prompt overrides for the AI collaborator
  • .stride/policies/    - OPA policies guarding activation and deletion
  • .stride/config.yaml  - workspace configuration (created on first write)

Run this in your project root before using other stride commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get current directory: %w", err)
		}

		if existing, err := workspace.Find(osFs(), cwd); err == nil && existing.Root == cwd {
			fmt.Println("✓ stride already initialized in this directory")
			return nil
		}

		ws, err := workspace.Init(osFs(), cwd)
		if err != nil {
			return fmt.Errorf("initialize workspace: %w", err)
		}

		// The database and embedding cache are per-machine state.
		gitignorePath := filepath.Join(ws.Dir, ".gitignore")
		gitignoreContent := `# stride generated/cache files
stride.db
stride.db-journal
stride.db-wal
stride.db-shm
crash_logs/
telemetry.json
`
		if err := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create .gitignore: %v\n", err)
		}

		fmt.Println("✓ stride workspace initialized")
		fmt.Println("")
		fmt.Println("Created:")
		fmt.Printf("  • %s/\n", ws.Dir)
		fmt.Printf("  • %s/\n", ws.TemplatesDir())
		fmt.Printf("  • %s/\n", ws.PolicyDir())
		fmt.Println("")
		fmt.Println("Next steps:")
		fmt.Println("  stride add \"Run a marathon in under 4 hours\"")
		fmt.Println("  stride breakdown <goal>")
		fmt.Println("  stride config set llm.provider openai")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
