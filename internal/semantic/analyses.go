package semantic

import "datareduce/internal/domain"

// ColPurchaseTime is the timestamp column the time-based analyses key on.
const ColPurchaseTime = "purchase_time"

// ColFirstPurchaseFlag marks an order as a customer's first purchase.
const ColFirstPurchaseFlag = "first_purchase_flag"

// Analysis type keys surfaced to callers.
const (
	AnalysisTotalAmountByDimension = "total_amount_by_dimension"
	AnalysisTimeSeriesTrend        = "time_series_trend"
	AnalysisMemberRanking          = "member_ranking"
	AnalysisAverageOrderValue      = "average_order_value"
	AnalysisNewVsReturning         = "new_vs_returning"
)

// AvailableAnalyses lists the analysis types the schema supports, in a
// fixed order. Heuristic, like grain detection: driven only by column
// presence.
func AvailableAnalyses(columns []domain.ColumnDescriptor) []string {
	var analyses []string
	if domain.HasColumn(columns, ColOrderTotalAmount) {
		analyses = append(analyses, AnalysisTotalAmountByDimension)
	}
	if domain.HasColumn(columns, ColPurchaseTime) {
		analyses = append(analyses, AnalysisTimeSeriesTrend)
	}
	if domain.HasColumn(columns, "member_id") {
		analyses = append(analyses, AnalysisMemberRanking)
	}
	if domain.HasColumn(columns, ColFirstPurchaseFlag) {
		analyses = append(analyses, AnalysisNewVsReturning)
	}
	return analyses
}

// Capability describes one entry in the fixed analysis catalog, including
// the chart type a frontend should render it with.
type Capability struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Chart       string `json:"chart"`
}

// Capabilities returns the full analysis catalog. Static: availability for
// a concrete dataset comes from AvailableAnalyses instead.
func Capabilities() []Capability {
	return []Capability{
		{
			Key:         AnalysisTimeSeriesTrend,
			Label:       "Time series trend",
			Description: "Aggregates sales amount per day, week, or month.",
			Chart:       "line",
		},
		{
			Key:         AnalysisTotalAmountByDimension,
			Label:       "Top products",
			Description: "Ranks products by summed item subtotal.",
			Chart:       "bar",
		},
		{
			Key:         AnalysisMemberRanking,
			Label:       "Top members",
			Description: "Ranks members by their aggregated order amounts.",
			Chart:       "bar",
		},
		{
			Key:         AnalysisAverageOrderValue,
			Label:       "Average order value",
			Description: "Total amount over distinct orders per time bucket.",
			Chart:       "line",
		},
		{
			Key:         AnalysisNewVsReturning,
			Label:       "New vs returning customers",
			Description: "Compares order counts between first-time and repeat buyers.",
			Chart:       "pie",
		},
	}
}
