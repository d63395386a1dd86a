package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"datareduce/internal/ddl"
	"datareduce/internal/domain"
	"datareduce/internal/engine"
	"datareduce/internal/semantic"
)

// profileConcurrency caps how many per-column profiling sessions run at
// once; each one opens its own engine session.
const profileConcurrency = 4

// bootstrapSampleRows is the number of raw rows included in a bootstrap.
const bootstrapSampleRows = 50

// rankingDefaultLimit bounds ranking analyses when the caller passes zero.
const rankingDefaultLimit = 10

// timeGranularities is the closed set of DATE_TRUNC arguments the
// time-based analyses accept. Values are interpolated into SQL, so the
// set must stay closed.
var timeGranularities = map[string]string{
	"day":   "day",
	"week":  "week",
	"month": "month",
}

// AnalysisService derives semantic metadata and runs the fixed catalog of
// safe analyses. Every analysis re-describes the schema and re-derives the
// blacklist before executing, so the block gate cannot be bypassed by a
// stale client.
type AnalysisService struct {
	engine   *engine.DuckDBEngine
	datasets domain.DatasetRepository
}

func NewAnalysisService(eng *engine.DuckDBEngine, datasets domain.DatasetRepository) *AnalysisService {
	return &AnalysisService{engine: eng, datasets: datasets}
}

// TimeRange is the observed span of a timestamp column.
type TimeRange struct {
	Column string      `json:"column"`
	Min    interface{} `json:"min"`
	Max    interface{} `json:"max"`
}

// BootstrapResult is the one-shot semantic snapshot of a dataset: schema,
// sample, detected grains, derived blacklist, and the analyses the schema
// supports.
type BootstrapResult struct {
	DatasetID string                    `json:"dataset_id"`
	RowCount  int64                     `json:"row_count"`
	Columns   []domain.ColumnDescriptor `json:"columns"`
	Sample    *engine.Result            `json:"sample"`
	Grains    []domain.Grain            `json:"grains"`
	Findings  []domain.BlacklistFinding `json:"findings"`
	Analyses  []string                  `json:"analyses"`
	TimeRange *TimeRange                `json:"time_range,omitempty"`
}

// AnalysisResult wraps one analysis execution with the warning-severity
// findings that apply to the metrics it touched.
type AnalysisResult struct {
	Analysis string         `json:"analysis"`
	Warnings []string       `json:"warnings,omitempty"`
	Result   *engine.Result `json:"result"`
}

// ColumnProfile summarizes one column's data quality.
type ColumnProfile struct {
	Name          string         `json:"name"`
	Type          domain.TypeTag `json:"type"`
	NullCount     int64          `json:"null_count"`
	NullRatio     float64        `json:"null_ratio"`
	DistinctCount int64          `json:"distinct_count"`
	Min           interface{}    `json:"min,omitempty"`
	Max           interface{}    `json:"max,omitempty"`
	Mean          interface{}    `json:"mean,omitempty"`
}

// Bootstrap describes the dataset and derives everything the semantic
// layer knows about it in one pass.
func (s *AnalysisService) Bootstrap(ctx context.Context, id string) (*BootstrapResult, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return nil, err
	}

	columns, err := s.engine.Describe(ctx, handle)
	if err != nil {
		return nil, err
	}

	grains := semantic.DetectGrains(columns)
	findings := semantic.DeriveBlacklist(grains, columns)

	view := ddl.QuoteIdentifier(ddl.DatasetViewName)

	countResult, err := s.engine.Query(ctx, handle, fmt.Sprintf("SELECT COUNT(*) FROM %s", view))
	if err != nil {
		return nil, err
	}
	rowCount := asInt64(countResult.Rows[0][0])

	sample, err := s.engine.Query(ctx, handle,
		fmt.Sprintf("SELECT * FROM %s LIMIT ?", view), bootstrapSampleRows)
	if err != nil {
		return nil, err
	}

	result := &BootstrapResult{
		DatasetID: handle.ID,
		RowCount:  rowCount,
		Columns:   columns,
		Sample:    sample,
		Grains:    grains.Sorted(),
		Findings:  findings,
		Analyses:  semantic.AvailableAnalyses(columns),
	}

	tr, err := s.timeRange(ctx, handle, columns)
	if err != nil {
		return nil, err
	}
	result.TimeRange = tr
	return result, nil
}

// Profile computes per-column quality stats concurrently, one session per
// column, bounded by profileConcurrency. Output order follows the schema.
func (s *AnalysisService) Profile(ctx context.Context, id string) ([]ColumnProfile, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return nil, err
	}

	columns, err := s.engine.Describe(ctx, handle)
	if err != nil {
		return nil, err
	}

	view := ddl.QuoteIdentifier(ddl.DatasetViewName)

	countResult, err := s.engine.Query(ctx, handle, fmt.Sprintf("SELECT COUNT(*) FROM %s", view))
	if err != nil {
		return nil, err
	}
	rowCount := asInt64(countResult.Rows[0][0])

	profiles := make([]ColumnProfile, len(columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileConcurrency)

	for i, col := range columns {
		g.Go(func() error {
			p, err := s.profileColumn(gctx, handle, col, rowCount)
			if err != nil {
				return err
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *AnalysisService) profileColumn(ctx context.Context, handle domain.DatasetHandle, col domain.ColumnDescriptor, rowCount int64) (ColumnProfile, error) {
	view := ddl.QuoteIdentifier(ddl.DatasetViewName)
	quoted := ddl.QuoteIdentifier(col.Name)
	numeric := col.Type == domain.TypeInteger || col.Type == domain.TypeFloat

	statsSQL := fmt.Sprintf("SELECT COUNT(*) - COUNT(%s), COUNT(DISTINCT %s)", quoted, quoted)
	if numeric {
		statsSQL += fmt.Sprintf(", MIN(%s), MAX(%s), AVG(%s)", quoted, quoted, quoted)
	}
	statsSQL += fmt.Sprintf(" FROM %s", view)

	result, err := s.engine.Query(ctx, handle, statsSQL)
	if err != nil {
		return ColumnProfile{}, err
	}
	row := result.Rows[0]

	profile := ColumnProfile{
		Name:          col.Name,
		Type:          col.Type,
		NullCount:     asInt64(row[0]),
		DistinctCount: asInt64(row[1]),
	}
	if rowCount > 0 {
		profile.NullRatio = float64(profile.NullCount) / float64(rowCount)
	}
	if numeric {
		profile.Min, profile.Max, profile.Mean = row[2], row[3], row[4]
	}
	return profile, nil
}

// TimeTrend sums order_total_amount per time bucket of purchase_time.
func (s *AnalysisService) TimeTrend(ctx context.Context, id, granularity string) (*AnalysisResult, error) {
	bucket, ok := timeGranularities[granularity]
	if !ok {
		return nil, domain.ErrValidation("granularity must be day, week, or month, got %q", granularity)
	}

	handle, _, findings, err := s.prepare(ctx, id, semantic.ColOrderTotalAmount,
		semantic.ColPurchaseTime, semantic.ColOrderTotalAmount)
	if err != nil {
		return nil, err
	}

	trendSQL := fmt.Sprintf(
		"SELECT DATE_TRUNC('%s', %s) AS bucket, SUM(%s) AS total_amount FROM %s GROUP BY bucket ORDER BY bucket",
		bucket,
		ddl.QuoteIdentifier(semantic.ColPurchaseTime),
		ddl.QuoteIdentifier(semantic.ColOrderTotalAmount),
		ddl.QuoteIdentifier(ddl.DatasetViewName),
	)
	result, err := s.engine.Query(ctx, handle, trendSQL)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Analysis: semantic.AnalysisTimeSeriesTrend,
		Warnings: warningsFor(findings, semantic.ColOrderTotalAmount),
		Result:   result,
	}, nil
}

// TopProducts ranks products by summed item_subtotal.
func (s *AnalysisService) TopProducts(ctx context.Context, id string, limit int) (*AnalysisResult, error) {
	handle, _, findings, err := s.prepare(ctx, id, semantic.ColItemSubtotal,
		"product_name", semantic.ColItemSubtotal)
	if err != nil {
		return nil, err
	}

	rankSQL := fmt.Sprintf(
		"SELECT %s AS product, SUM(%s) AS subtotal FROM %s GROUP BY product ORDER BY subtotal DESC LIMIT ?",
		ddl.QuoteIdentifier("product_name"),
		ddl.QuoteIdentifier(semantic.ColItemSubtotal),
		ddl.QuoteIdentifier(ddl.DatasetViewName),
	)
	result, err := s.engine.Query(ctx, handle, rankSQL, clampLimit(limit, rankingDefaultLimit, 1, 100))
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Analysis: semantic.AnalysisTotalAmountByDimension,
		Warnings: warningsFor(findings, semantic.ColItemSubtotal),
		Result:   result,
	}, nil
}

// TopMembers ranks members by their aggregated order amounts. Amounts are
// aggregated per member inside the query, which is exactly what the
// member-grain warning asks for.
func (s *AnalysisService) TopMembers(ctx context.Context, id string, limit int) (*AnalysisResult, error) {
	handle, _, findings, err := s.prepare(ctx, id, semantic.ColOrderTotalAmount,
		"member_id", semantic.ColOrderTotalAmount)
	if err != nil {
		return nil, err
	}

	rankSQL := fmt.Sprintf(
		"SELECT %s AS member, SUM(%s) AS total_amount, COUNT(*) AS orders FROM %s GROUP BY member ORDER BY total_amount DESC LIMIT ?",
		ddl.QuoteIdentifier("member_id"),
		ddl.QuoteIdentifier(semantic.ColOrderTotalAmount),
		ddl.QuoteIdentifier(ddl.DatasetViewName),
	)
	result, err := s.engine.Query(ctx, handle, rankSQL, clampLimit(limit, rankingDefaultLimit, 1, 100))
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Analysis: semantic.AnalysisMemberRanking,
		Warnings: warningsFor(findings, semantic.ColOrderTotalAmount),
		Result:   result,
	}, nil
}

// AverageOrderValue computes total amount over distinct orders per time
// bucket.
func (s *AnalysisService) AverageOrderValue(ctx context.Context, id, granularity string) (*AnalysisResult, error) {
	bucket, ok := timeGranularities[granularity]
	if !ok {
		return nil, domain.ErrValidation("granularity must be day, week, or month, got %q", granularity)
	}

	handle, _, findings, err := s.prepare(ctx, id, semantic.ColOrderTotalAmount,
		"order_id", semantic.ColPurchaseTime, semantic.ColOrderTotalAmount)
	if err != nil {
		return nil, err
	}

	aovSQL := fmt.Sprintf(
		"SELECT DATE_TRUNC('%s', %s) AS bucket, SUM(%s) / COUNT(DISTINCT %s) AS avg_order_value FROM %s GROUP BY bucket ORDER BY bucket",
		bucket,
		ddl.QuoteIdentifier(semantic.ColPurchaseTime),
		ddl.QuoteIdentifier(semantic.ColOrderTotalAmount),
		ddl.QuoteIdentifier("order_id"),
		ddl.QuoteIdentifier(ddl.DatasetViewName),
	)
	result, err := s.engine.Query(ctx, handle, aovSQL)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Analysis: semantic.AnalysisAverageOrderValue,
		Warnings: warningsFor(findings, semantic.ColOrderTotalAmount),
		Result:   result,
	}, nil
}

// NewVsReturning compares order counts between first-time and repeat
// buyers, keyed on the first_purchase_flag column.
func (s *AnalysisService) NewVsReturning(ctx context.Context, id string) (*AnalysisResult, error) {
	handle, _, findings, err := s.prepare(ctx, id, "order_id",
		semantic.ColFirstPurchaseFlag, "order_id")
	if err != nil {
		return nil, err
	}

	splitSQL := fmt.Sprintf(
		"SELECT CASE WHEN %s THEN 'new' ELSE 'returning' END AS customer_type, COUNT(DISTINCT %s) AS orders FROM %s GROUP BY customer_type ORDER BY customer_type",
		ddl.QuoteIdentifier(semantic.ColFirstPurchaseFlag),
		ddl.QuoteIdentifier("order_id"),
		ddl.QuoteIdentifier(ddl.DatasetViewName),
	)
	result, err := s.engine.Query(ctx, handle, splitSQL)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{
		Analysis: semantic.AnalysisNewVsReturning,
		Warnings: warningsFor(findings),
		Result:   result,
	}, nil
}

// prepare resolves the dataset, checks that every required column exists,
// and applies the server-side block gate for metric.
func (s *AnalysisService) prepare(ctx context.Context, id, metric string, required ...string) (domain.DatasetHandle, []domain.ColumnDescriptor, []domain.BlacklistFinding, error) {
	handle, err := resolveDataset(ctx, s.datasets, id)
	if err != nil {
		return domain.DatasetHandle{}, nil, nil, err
	}

	columns, err := s.engine.Describe(ctx, handle)
	if err != nil {
		return domain.DatasetHandle{}, nil, nil, err
	}
	for _, col := range required {
		if !domain.HasColumn(columns, col) {
			return domain.DatasetHandle{}, nil, nil, domain.ErrValidation("analysis requires column %q", col)
		}
	}

	findings := semantic.DeriveBlacklist(semantic.DetectGrains(columns), columns)
	if reason, blocked := semantic.MetricBlocked(findings, metric); blocked {
		return domain.DatasetHandle{}, nil, nil, &domain.MetricBlockedError{Metric: metric, Reason: reason}
	}
	return handle, columns, findings, nil
}

// timeRange probes the candidate timestamp columns in order and returns
// the span of the first one that holds any value. An all-null candidate
// falls through to the next.
func (s *AnalysisService) timeRange(ctx context.Context, handle domain.DatasetHandle, columns []domain.ColumnDescriptor) (*TimeRange, error) {
	for _, candidate := range []string{semantic.ColPurchaseTime, "created_at", semantic.ColPaidAt} {
		if !domain.HasColumn(columns, candidate) {
			continue
		}
		quoted := ddl.QuoteIdentifier(candidate)
		rangeSQL := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s",
			quoted, quoted, ddl.QuoteIdentifier(ddl.DatasetViewName))
		result, err := s.engine.Query(ctx, handle, rangeSQL)
		if err != nil {
			return nil, err
		}
		row := result.Rows[0]
		if row[0] == nil {
			continue
		}
		return &TimeRange{Column: candidate, Min: row[0], Max: row[1]}, nil
	}
	return nil, nil
}

// warningsFor collects warning-severity reasons that mention any of the
// metrics, plus dataset-wide warnings.
func warningsFor(findings []domain.BlacklistFinding, metrics ...string) []string {
	var warnings []string
	for _, f := range findings {
		if f.Severity != domain.SeverityWarning {
			continue
		}
		if f.Grain == domain.GrainAll {
			warnings = append(warnings, f.Reason)
			continue
		}
		for _, m := range f.Metrics {
			for _, want := range metrics {
				if m == want {
					warnings = append(warnings, f.Reason)
				}
			}
		}
	}
	return warnings
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return 0
	}
}
