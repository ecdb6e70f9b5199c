package main

import (
	"github.com/spf13/cobra"
)

var (
	searchRegex      bool
	searchMaxResults int
)

var searchCmd = &cobra.Command{
	Use:   "search <root> <query>",
	Short: "Search file contents",
	Long: `Search file contents for a literal string, or a regular expression with
--regex. Binary files are skipped.

Examples:
  scout search . "TODO"
  scout search . 'def \w+_handler' --regex
  scout search . needle --max-results 20 --pattern '*.py'`,
	Args: cobra.ExactArgs(2),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchRegex, "regex", false,
		"Interpret the query as a regular expression")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0,
		"Stop after this many matches (0 = unlimited)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	printEnvelope(eng.GrepSearch(ctx, newRequest(args[0]), args[1], searchRegex, searchMaxResults))
}
