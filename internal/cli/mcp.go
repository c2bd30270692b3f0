package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	nexmomcp "github.com/allyourbase/nexmoctl/internal/mcp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP (Model Context Protocol) server",
	Long: `Start a Model Context Protocol server on stdio that exposes the account's
read-only lookups (balance, pricing, numbers, message search) as tools,
resources, and prompts for AI coding assistants.

Buying and cancelling numbers are not exposed.

Configuration in Claude Desktop (claude_desktop_config.json):
  {
    "mcpServers": {
      "nexmo": {
        "command": "nexmoctl",
        "args": ["mcp"],
        "env": {"NEXMO_API_KEY": "...", "NEXMO_API_SECRET": "..."}
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; newClient logs to stderr.
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	srv := nexmomcp.NewServer(client, buildVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
