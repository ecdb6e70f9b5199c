package main

import (
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <root>",
	Short: "Build the dependency graph of a source tree",
	Long: `Derive the file-level import edges and symbol-level call/reference edges
of a source tree. Imports that do not resolve within the tree are reported
as dangling edges.

Examples:
  scout graph .
  scout graph https://github.com/acme/widget`,
	Args: cobra.ExactArgs(1),
	Run:  runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	printEnvelope(eng.BuildDependencyGraph(ctx, newRequest(args[0])))
}
