// Package cli implements the datareduce command line interface. It runs
// the engine directly against local files, without a server or metastore.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "datareduce",
		Short:         "Inspect, filter, and analyze tabular datasets",
		Long:          "datareduce compiles filter rules into safe queries and derives semantic guards over CSV and XLSX datasets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newProfileCmd(),
		newPreviewCmd(),
		newExportCmd(),
		newAnalyzeCmd(),
	)
	return rootCmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
