package main

import (
	"github.com/spf13/cobra"
)

var symbolCmd = &cobra.Command{
	Use:   "symbol <root> <name>",
	Short: "Find symbol definitions by name",
	Long: `Find where a symbol is defined. An exact qualified-name match wins;
otherwise every definition sharing the base name is returned.

Examples:
  scout symbol . helper
  scout symbol . pkg.util.helper
  scout symbol https://github.com/acme/widget Widget`,
	Args: cobra.ExactArgs(2),
	Run:  runSymbol,
}

func init() {
	rootCmd.AddCommand(symbolCmd)
}

func runSymbol(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	printEnvelope(eng.FindSymbol(ctx, newRequest(args[0]), args[1]))
}
