package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datareduce/internal/db"
	"datareduce/internal/domain"
	"datareduce/internal/engine"
	"datareduce/internal/repository"
	"datareduce/internal/storage"
)

// Order-grain dataset with member ids: detects order and member grains.
const ordersCSV = `order_id,member_id,order_total_amount,purchase_time,paid
O1,M1,120.50,2024-01-05 10:00:00,true
O2,M2,80.00,2024-01-06 11:30:00,false
O3,M1,310.25,2024-02-01 09:15:00,true
O4,M3,45.00,2024-02-02 16:45:00,true
`

// Item-grain dataset carrying an order-level amount: the blacklist blocks
// summing order_total_amount here.
const itemsCSV = `order_id,product_id,product_name,item_subtotal,order_total_amount
O1,P1,Widget,50.00,120.50
O1,P2,Gadget,70.50,120.50
O2,P1,Widget,80.00,80.00
`

// Orders flagged as first purchases or repeats, for the customer split.
const flaggedOrdersCSV = `order_id,member_id,order_total_amount,first_purchase_flag
O1,M1,120.50,true
O2,M2,80.00,true
O3,M1,310.25,false
O4,M3,45.00,false
`

type testServices struct {
	datasets *DatasetService
	reduce   *ReduceService
	analysis *AnalysisService
	pool     *sql.DB
	inputDir string
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	dir := t.TempDir()
	pool, err := db.OpenSQLite(filepath.Join(dir, "meta.sqlite"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, db.RunMigrations(pool))

	inputDir := filepath.Join(dir, "input")
	store, err := storage.NewStore(inputDir, 32<<20)
	require.NoError(t, err)

	outputDir := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	eng := engine.NewDuckDBEngine()
	datasetRepo := repository.NewDatasetRepo(pool)
	artifactRepo := repository.NewArtifactRepo(pool)

	return &testServices{
		datasets: NewDatasetService(store, datasetRepo, eng),
		reduce:   NewReduceService(eng, datasetRepo, artifactRepo, outputDir),
		analysis: NewAnalysisService(eng, datasetRepo),
		pool:     pool,
		inputDir: inputDir,
	}
}

func (ts *testServices) upload(t *testing.T, csv string) *domain.Dataset {
	t.Helper()
	ds, _, err := ts.datasets.Upload(context.Background(), "orders.csv", strings.NewReader(csv))
	require.NoError(t, err)
	return ds
}

func TestDatasetService_UploadRegistersAndDescribes(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ctx := context.Background()

	ds, columns, err := ts.datasets.Upload(ctx, "orders.csv", strings.NewReader(ordersCSV))
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "orders.csv", ds.Filename)
	assert.Equal(t, []string{"order_id", "member_id", "order_total_amount", "purchase_time", "paid"},
		domain.ColumnNames(columns))

	// The upload must be resolvable afterwards.
	handle, err := ts.datasets.Resolve(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.Path, handle.Path)

	listed, err := ts.datasets.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, ds.ID, listed[0].ID)
}

func TestDatasetService_ResolveMissing(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)

	_, err := ts.datasets.Resolve(context.Background(), "no-such-id")
	var notFound *domain.DatasetNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDatasetService_Preview(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	// Zero means the default limit; the fixture is smaller than any clamp.
	result, err := ts.datasets.Preview(context.Background(), ds.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, result.RowCount)
	assert.Equal(t, []string{"order_id", "member_id", "order_total_amount", "purchase_time", "paid"}, result.Columns)
}

func TestDatasetService_DistinctValues(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)
	ctx := context.Background()

	result, err := ts.datasets.DistinctValues(ctx, ds.ID, "member_id", 0)
	require.NoError(t, err)
	require.Equal(t, 3, result.RowCount)
	assert.Equal(t, "M1", result.Rows[0][0])

	_, err = ts.datasets.DistinctValues(ctx, ds.ID, "no_such_column", 0)
	var unknown *domain.UnknownColumnError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no_such_column", unknown.Column)
}

func TestReduceService_Preview(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)
	ctx := context.Background()

	tests := []struct {
		name    string
		rules   []domain.FilterRule
		logic   string
		matched int64
	}{
		{name: "no rules matches everything", matched: 4},
		{
			name:    "paid orders",
			rules:   []domain.FilterRule{{Column: "paid", Operator: domain.OpEq, Value: true}},
			matched: 3,
		},
		{
			name: "amount between",
			rules: []domain.FilterRule{
				{Column: "order_total_amount", Operator: domain.OpBetween, Value: []interface{}{100, 400}},
			},
			matched: 2,
		},
		{
			name: "or logic",
			rules: []domain.FilterRule{
				{Column: "member_id", Operator: domain.OpEq, Value: "M2"},
				{Column: "member_id", Operator: domain.OpEq, Value: "M3"},
			},
			logic:   "or",
			matched: 2,
		},
		{name: "zero matches is not an error",
			rules:   []domain.FilterRule{{Column: "member_id", Operator: domain.OpEq, Value: "M99"}},
			matched: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ts.reduce.Preview(ctx, ds.ID, tt.rules, tt.logic)
			require.NoError(t, err)
			assert.Equal(t, tt.matched, result.MatchedRows)
			assert.GreaterOrEqual(t, result.Elapsed.Nanoseconds(), int64(0))
		})
	}
}

func TestReduceService_CompileErrorsBeforeExecution(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)
	ctx := context.Background()

	_, err := ts.reduce.Preview(ctx, ds.ID,
		[]domain.FilterRule{{Column: "ghost", Operator: domain.OpEq, Value: 1}}, "")
	var unknown *domain.UnknownColumnError
	require.ErrorAs(t, err, &unknown)

	_, err = ts.reduce.Preview(ctx, ds.ID,
		[]domain.FilterRule{{Column: "paid", Operator: "regex", Value: ".*"}}, "")
	var unsupported *domain.UnsupportedOperatorError
	require.ErrorAs(t, err, &unsupported)

	_, err = ts.reduce.Preview(ctx, ds.ID,
		[]domain.FilterRule{{Column: "order_total_amount", Operator: domain.OpBetween, Value: []interface{}{1}}}, "")
	var malformed *domain.MalformedOperandError
	require.ErrorAs(t, err, &malformed)
}

func TestReduceService_ExportRecordsArtifact(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)
	ctx := context.Background()

	artifact, err := ts.reduce.Export(ctx, ds.ID,
		[]domain.FilterRule{{Column: "paid", Operator: domain.OpEq, Value: true}}, "and", "csv")
	require.NoError(t, err)
	assert.Equal(t, ds.ID, artifact.DatasetID)
	assert.Equal(t, domain.FormatCSV, artifact.Format)

	content, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 4) // header + 3 paid orders
	assert.NotContains(t, string(content), "O2")

	// The artifact row must land in the metastore for TTL cleanup.
	var count int
	require.NoError(t, ts.pool.QueryRow(
		"SELECT COUNT(*) FROM export_artifacts WHERE dataset_id = ?", ds.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReduceService_ExportRejectsBadFormat(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	_, err := ts.reduce.Export(context.Background(), ds.ID, nil, "", "parquet")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestAnalysisService_Bootstrap(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	result, err := ts.analysis.Bootstrap(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.RowCount)
	assert.Equal(t, []domain.Grain{domain.GrainMember, domain.GrainOrder}, result.Grains)
	assert.Equal(t, 4, result.Sample.RowCount)

	// Member grain over raw amounts warns but never blocks.
	require.Len(t, result.Findings, 1)
	assert.Equal(t, domain.SeverityWarning, result.Findings[0].Severity)

	assert.Contains(t, result.Analyses, "time_series_trend")
	assert.Contains(t, result.Analyses, "member_ranking")

	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "purchase_time", result.TimeRange.Column)
}

func TestAnalysisService_TimeTrend(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	result, err := ts.analysis.TimeTrend(context.Background(), ds.ID, "month")
	require.NoError(t, err)
	assert.Equal(t, "time_series_trend", result.Analysis)
	assert.Equal(t, 2, result.Result.RowCount) // Jan and Feb buckets

	_, err = ts.analysis.TimeTrend(context.Background(), ds.ID, "hour")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestAnalysisService_BlockGateRejectsBlacklistedMetric(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, itemsCSV)

	// itemsCSV carries both order_id and product_id, so both grains are
	// detected and item_subtotal is blocked at order grain. The gate must
	// refuse the analysis even though every required column exists.
	_, err := ts.analysis.TopProducts(context.Background(), ds.ID, 5)
	var blocked *domain.MetricBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "item_subtotal", blocked.Metric)
	assert.NotEmpty(t, blocked.Reason)
}

func TestAnalysisService_MissingColumnIsValidationError(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, itemsCSV)

	// No member_id column, so the column check fires before any gate.
	_, err := ts.analysis.TopMembers(context.Background(), ds.ID, 5)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestAnalysisService_TopProducts(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)

	// Pure item grain, no order-level columns: nothing to block.
	ds := ts.upload(t, `product_id,product_name,item_subtotal
P1,Widget,50.00
P2,Gadget,70.50
P1,Widget,80.00
`)

	result, err := ts.analysis.TopProducts(context.Background(), ds.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 2, result.Result.RowCount)
	assert.Equal(t, "Widget", result.Result.Rows[0][0]) // 130.00 beats 70.50
	assert.Empty(t, result.Warnings)
}

func TestDatasetService_UploadFailureRemovesFile(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)

	// A zero-byte upload saves fine but the engine cannot derive a schema
	// from it; the canonical file must not linger.
	_, _, err := ts.datasets.Upload(context.Background(), "empty.csv", strings.NewReader(""))
	require.Error(t, err)

	entries, err := os.ReadDir(ts.inputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDatasetService_DistinctValuesHonorsSmallLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	result, err := ts.datasets.DistinctValues(context.Background(), ds.ID, "member_id", 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	assert.Equal(t, "M1", result.Rows[0][0])
}

func TestAnalysisService_NewVsReturningSplitsOrders(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, flaggedOrdersCSV)

	result, err := ts.analysis.NewVsReturning(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "new_vs_returning", result.Analysis)
	require.Equal(t, 2, result.Result.RowCount)
	assert.Equal(t, "new", result.Result.Rows[0][0])
	assert.EqualValues(t, 2, result.Result.Rows[0][1])
	assert.Equal(t, "returning", result.Result.Rows[1][0])
	assert.EqualValues(t, 2, result.Result.Rows[1][1])
}

func TestAnalysisService_NewVsReturningRequiresFlag(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	_, err := ts.analysis.NewVsReturning(context.Background(), ds.ID)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestAnalysisService_TimeRangeSkipsEmptyCandidates(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)

	// purchase_time is present but all null, so the range must come from
	// created_at, which outranks paid_at.
	ds := ts.upload(t, strings.Join([]string{
		"order_id,purchase_time,created_at,paid_at",
		"O1,,2024-01-05 10:00:00,2024-01-05 10:05:00",
		"O2,,2024-02-06 11:30:00,2024-02-06 11:35:00",
	}, "\n"))

	result, err := ts.analysis.Bootstrap(context.Background(), ds.ID)
	require.NoError(t, err)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "created_at", result.TimeRange.Column)
}

func TestAnalysisService_TopMembersAggregatesWithWarning(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	result, err := ts.analysis.TopMembers(context.Background(), ds.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, result.Result.RowCount)
	assert.Equal(t, "M1", result.Result.Rows[0][0]) // 120.50 + 310.25

	// Member grain over a raw amount column warns but proceeds, since the
	// query aggregates per member.
	assert.NotEmpty(t, result.Warnings)
}

func TestAnalysisService_Profile(t *testing.T) {
	t.Parallel()
	ts := newTestServices(t)
	ds := ts.upload(t, ordersCSV)

	profiles, err := ts.analysis.Profile(context.Background(), ds.ID)
	require.NoError(t, err)
	require.Len(t, profiles, 5)

	byName := map[string]ColumnProfile{}
	for _, p := range profiles {
		byName[p.Name] = p
	}

	member := byName["member_id"]
	assert.Equal(t, int64(0), member.NullCount)
	assert.Equal(t, int64(3), member.DistinctCount)

	amount := byName["order_total_amount"]
	assert.Equal(t, int64(4), amount.DistinctCount)
	assert.NotNil(t, amount.Min)
	assert.NotNil(t, amount.Max)
}
