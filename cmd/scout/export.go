package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scout/internal/export"
)

var (
	exportFormat   string
	exportOutput   string
	exportCompress bool
)

var exportCmd = &cobra.Command{
	Use:   "export <root>",
	Short: "Export the symbol index and dependency graph",
	Long: `Export the full symbol index and dependency graph of a source tree as
JSON, YAML, or a SCIP index.

Examples:
  scout export . --format json --output index.json
  scout export . --format yaml
  scout export . --format scip --output index.scip
  scout export . --format json --compress --output index.json.zst`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json",
		"Output format: json, yaml, or scip")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"Write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false,
		"Compress the output with zstd")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	eng, _ := mustNewEngine()
	defer eng.Close()

	ctx, cancel := queryContext()
	defer cancel()

	idx, g, root, err := eng.Graph(ctx, newRequest(args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
	defer root.Close()

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", exportOutput, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	report := export.BuildReport(idx, g)
	if err := export.Write(out, report, idx, format, exportCompress); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
}
