package cli

import (
	"github.com/spf13/cobra"

	"datareduce/internal/engine"
	"datareduce/internal/service"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Describe a dataset: schema, grains, blacklist, and supported analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newLocalRegistry(args[0])
			if err != nil {
				return err
			}

			analysis := service.NewAnalysisService(engine.NewDuckDBEngine(), registry)
			result, err := analysis.Bootstrap(cmd.Context(), localID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <file>",
		Short: "Compute per-column quality stats (nulls, distinct counts, ranges)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newLocalRegistry(args[0])
			if err != nil {
				return err
			}

			analysis := service.NewAnalysisService(engine.NewDuckDBEngine(), registry)
			profiles, err := analysis.Profile(cmd.Context(), localID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), profiles)
		},
	}
}
