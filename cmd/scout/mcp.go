package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scout/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Run a Model Context Protocol server speaking line-delimited JSON-RPC on
stdin/stdout. Exposes the scan, symbol, impact, graph, search, and blame
operations as MCP tools.

Intended to be launched by an MCP client, not interactively.`,
	Args: cobra.NoArgs,
	Run:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	eng, logger := mustNewEngine()
	defer eng.Close()

	server := mcp.NewServer(eng, logger)
	if err := server.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server failed: %v\n", err)
		os.Exit(1)
	}
}
