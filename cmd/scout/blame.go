package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var blameCmd = &cobra.Command{
	Use:   "blame <root> <file> <line>",
	Short: "Resolve the authorship of one line",
	Long: `Resolve the commit, author, and summary for one line of a file through
git history. Requires a full-history checkout.

Examples:
  scout blame . src/app.py 42
  scout blame https://github.com/acme/widget src/app.py 42`,
	Args: cobra.ExactArgs(3),
	Run:  runBlame,
}

func init() {
	rootCmd.AddCommand(blameCmd)
}

func runBlame(cmd *cobra.Command, args []string) {
	line, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid line number: %s\n", args[2])
		os.Exit(1)
	}

	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	printEnvelope(eng.GitBlame(ctx, newRequest(args[0]), args[1], line))
}
