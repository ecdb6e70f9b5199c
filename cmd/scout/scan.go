package main

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <root>",
	Short: "Index a source tree and list its symbols",
	Long: `Index every matching file under a local directory or remote repository
and list the functions, classes, methods, and module variables it defines.

Examples:
  scout scan .
  scout scan https://github.com/acme/widget
  scout scan https://github.com/acme/widget/tree/v1.2.0 --token $GITHUB_TOKEN`,
	Args: cobra.ExactArgs(1),
	Run:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	printEnvelope(eng.ScanDirectory(ctx, newRequest(args[0])))
}
