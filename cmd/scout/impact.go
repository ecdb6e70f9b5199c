package main

import (
	"github.com/spf13/cobra"
)

var impactDepth int

var impactCmd = &cobra.Command{
	Use:   "impact <root> <symbol>",
	Short: "Analyze what depends on a symbol",
	Long: `Walk the reverse dependency graph from a symbol's definitions and list
every file and symbol that depends on it, nearest first.

Examples:
  scout impact . foo
  scout impact . pkg.util.helper --depth 2`,
	Args: cobra.ExactArgs(2),
	Run:  runImpact,
}

func init() {
	impactCmd.Flags().IntVar(&impactDepth, "depth", 0,
		"Maximum traversal depth (0 = unlimited)")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	printEnvelope(eng.AnalyzeImpact(ctx, newRequest(args[0]), args[1], impactDepth))
}
