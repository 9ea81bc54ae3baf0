/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/app"
	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can work
with your goals directly.

The server speaks over stdin/stdout and exposes the same operations as the
CLI: listing and creating goals, breaking them down, planning and activating,
advancing roadmaps, locking, and the timeline projection.

Example client registration (Claude Code, Cursor, and similar):
  stride mcp

The server runs until the client disconnects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServer(ctx context.Context) error {
	ac := openApp(ctx)
	defer closeApp(ac)

	client := newTelemetryClient(ac.Workspace.Dir)
	defer func() { _ = client.Close() }()
	client.Track(telemetry.EventMCPSessionStart, nil)

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "stride",
		Version: version,
	}, &mcpsdk.ServerOptions{})

	if err := mcp.RegisterTools(server, ac); err != nil {
		return fmt.Errorf("register MCP tools: %w", err)
	}

	// Unlike a one-shot CLI run, the server holds the graph for the whole
	// session, so foreign writes to a file-backed store must be folded in.
	go reloadOnExternalChange(ctx, ac)

	// Stdout belongs to the protocol; anything human goes to stderr.
	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

func reloadOnExternalChange(ctx context.Context, ac *app.Context) {
	if ac.Watcher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ac.Watcher.Events():
			if !ok {
				return
			}
			if err := ac.Reload(); err != nil {
				slog.Warn("reload after external store change", "error", err)
			}
		}
	}
}
