package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the repository cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cached repositories and disk usage",
	Args:  cobra.NoArgs,
	Run:   runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached repositories",
	Long: `Remove every cached repository that is not currently in use by another
query. Entries held by a running query are skipped.`,
	Args: cobra.NoArgs,
	Run:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInfo(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	info, err := eng.Cache().Info()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache info failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(info, "", "  ")
	fmt.Println(string(out))
}

func runCacheClear(cmd *cobra.Command, args []string) {
	eng, _ := mustNewEngine()
	defer eng.Close()

	removed, err := eng.Cache().Clear()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache clear failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("removed %d cached repositories\n", removed)
}
