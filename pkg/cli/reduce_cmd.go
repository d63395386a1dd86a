package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"datareduce/internal/domain"
	"datareduce/internal/engine"
	"datareduce/internal/service"
)

// parseRules decodes the --rules JSON array.
func parseRules(raw string) ([]domain.FilterRule, error) {
	if raw == "" {
		return nil, nil
	}
	var rules []domain.FilterRule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, domain.ErrValidation("--rules must be a JSON array of {column, op, value} objects")
	}
	return rules, nil
}

func newPreviewCmd() *cobra.Command {
	var (
		rulesJSON string
		logic     string
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Count the rows matching a set of filter rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newLocalRegistry(args[0])
			if err != nil {
				return err
			}
			rules, err := parseRules(rulesJSON)
			if err != nil {
				return err
			}

			reduce := service.NewReduceService(engine.NewDuckDBEngine(), registry, discardArtifacts{}, ".")
			result, err := reduce.Preview(cmd.Context(), localID, rules, logic)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				MatchedRows int64 `json:"matched_rows"`
				ElapsedMS   int64 `json:"elapsed_ms"`
			}{MatchedRows: result.MatchedRows, ElapsedMS: result.Elapsed.Milliseconds()})
		},
	}

	cmd.Flags().StringVar(&rulesJSON, "rules", "", "filter rules as a JSON array of {column, op, value}")
	cmd.Flags().StringVar(&logic, "logic", "and", "combinator for multiple rules: and | or")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		rulesJSON string
		logic     string
		format    string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the rows matching a set of filter rules to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newLocalRegistry(args[0])
			if err != nil {
				return err
			}
			rules, err := parseRules(rulesJSON)
			if err != nil {
				return err
			}

			reduce := service.NewReduceService(engine.NewDuckDBEngine(), registry, discardArtifacts{}, outDir)
			artifact, err := reduce.Export(cmd.Context(), localID, rules, logic, format)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), artifact.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesJSON, "rules", "", "filter rules as a JSON array of {column, op, value}")
	cmd.Flags().StringVar(&logic, "logic", "and", "combinator for multiple rules: and | or")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv | xlsx")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the export into")
	return cmd
}
