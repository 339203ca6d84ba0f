// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio MCP server bound to the acting account.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/medrec/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and acts as a single account,
chosen with --user or the default_user config key.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "medrec": {
        "command": "medrec",
        "args": ["mcp", "--user", "alice"]
      }
    }
  }

AVAILABLE TOOLS:

  add_record        Create a medical record
  list_records      List records, newest first, with optional search
  get_record        Get one record with its risk flags
  update_record     Replace a record's fields
  delete_record     Delete a record
  dashboard_stats   Dashboard summary
  analyze_records   Aggregate stats and flagged records

AVAILABLE RESOURCES:

  medrec://recent   Ten most recent records
  medrec://stats    Dashboard summary
  medrec://risks    Flagged records`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := actingUser()
		if err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(recordStore(), owner)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("starting mcp server", "user", owner.Username, "backend", cfg.GetBackend())
		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
