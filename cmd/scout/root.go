package main

import (
	"github.com/spf13/cobra"

	"scout/internal/version"
)

var (
	configDirFlag string
	verboseFlag   int
	tokenFlag     string
	patternFlag   string
	timeoutFlag   int
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scout - code analysis engine",
	Long: `Scout answers structural questions about source trees, local or remote:
where symbols are defined, what depends on them, what a change would touch,
and who last edited a line. Remote repositories are fetched once into a
shared budgeted cache and analyzed like local directories.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("scout version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"Directory holding config.json (default: platform config dir)")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v",
		"Increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "",
		"Access token for private repositories")
	rootCmd.PersistentFlags().StringVar(&patternFlag, "pattern", "",
		"File glob to analyze (default from config, *.py)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0,
		"Query timeout in seconds (0 = none)")
}
