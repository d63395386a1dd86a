package cli

import (
	"github.com/spf13/cobra"

	"datareduce/internal/domain"
	"datareduce/internal/engine"
	"datareduce/internal/service"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		granularity string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file> <type>",
		Short: "Run one of the safe analyses against a dataset",
		Long: `Run a guarded analysis. Types:
  time-trend           total amount per time bucket
  top-products         products ranked by summed subtotal
  top-members          members ranked by aggregated order amounts
  average-order-value  amount over distinct orders per time bucket
  new-vs-returning     order counts for first-time vs repeat buyers

Analyses over blacklisted metric/grain combinations are refused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newLocalRegistry(args[0])
			if err != nil {
				return err
			}

			analysis := service.NewAnalysisService(engine.NewDuckDBEngine(), registry)
			ctx := cmd.Context()

			var result *service.AnalysisResult
			switch args[1] {
			case "time-trend":
				result, err = analysis.TimeTrend(ctx, localID, granularity)
			case "top-products":
				result, err = analysis.TopProducts(ctx, localID, limit)
			case "top-members":
				result, err = analysis.TopMembers(ctx, localID, limit)
			case "average-order-value":
				result, err = analysis.AverageOrderValue(ctx, localID, granularity)
			case "new-vs-returning":
				result, err = analysis.NewVsReturning(ctx, localID)
			default:
				return domain.ErrValidation("unknown analysis type %q", args[1])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&granularity, "granularity", "day", "time bucket: day | week | month")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of ranked rows to return")
	return cmd
}
