package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `order_id,member_id,order_total_amount,purchase_time,paid
O1,M1,120.50,2024-01-05 10:00:00,true
O2,M2,80.00,2024-01-06 11:30:00,false
O3,M1,310.25,2024-02-01 09:15:00,true
`

func writeFixture(t *testing.T, csv string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return path
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectCmd(t *testing.T) {
	path := writeFixture(t, ordersCSV)

	out, err := runCLI(t, "inspect", path)
	require.NoError(t, err)

	var result struct {
		RowCount int64    `json:"row_count"`
		Grains   []string `json:"grains"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, int64(3), result.RowCount)
	assert.Equal(t, []string{"member", "order"}, result.Grains)
}

func TestInspectCmd_MissingFile(t *testing.T) {
	_, err := runCLI(t, "inspect", "/no/such/file.csv")
	require.Error(t, err)
}

func TestPreviewCmd(t *testing.T) {
	path := writeFixture(t, ordersCSV)

	out, err := runCLI(t, "preview", path,
		"--rules", `[{"column":"paid","op":"eq","value":true}]`)
	require.NoError(t, err)

	var result struct {
		MatchedRows int64 `json:"matched_rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, int64(2), result.MatchedRows)
}

func TestPreviewCmd_BadRulesJSON(t *testing.T) {
	path := writeFixture(t, ordersCSV)

	_, err := runCLI(t, "preview", path, "--rules", "not json")
	require.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	path := writeFixture(t, ordersCSV)
	outDir := t.TempDir()

	out, err := runCLI(t, "export", path,
		"--rules", `[{"column":"member_id","op":"eq","value":"M1"}]`,
		"--out", outDir)
	require.NoError(t, err)

	exported := filepath.Join(outDir, "local_filtered.csv")
	assert.Contains(t, out, exported)

	content, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "M2")
}

func TestAnalyzeCmd_TimeTrend(t *testing.T) {
	path := writeFixture(t, ordersCSV)

	out, err := runCLI(t, "analyze", path, "time-trend", "--granularity", "month")
	require.NoError(t, err)

	var result struct {
		Analysis string `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "time_series_trend", result.Analysis)
}

func TestAnalyzeCmd_NewVsReturning(t *testing.T) {
	path := writeFixture(t, `order_id,member_id,order_total_amount,first_purchase_flag
O1,M1,120.50,true
O2,M2,80.00,false
O3,M1,310.25,false
`)

	out, err := runCLI(t, "analyze", path, "new-vs-returning")
	require.NoError(t, err)

	var result struct {
		Analysis string `json:"analysis"`
		Result   struct {
			RowCount int `json:"row_count"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "new_vs_returning", result.Analysis)
	assert.Equal(t, 2, result.Result.RowCount)
}

func TestAnalyzeCmd_UnknownType(t *testing.T) {
	path := writeFixture(t, ordersCSV)

	_, err := runCLI(t, "analyze", path, "median-everything")
	require.Error(t, err)
}

func TestAnalyzeCmd_BlockedMetric(t *testing.T) {
	path := writeFixture(t, `order_id,product_id,product_name,item_subtotal,order_total_amount
O1,P1,Widget,50.00,120.50
O1,P2,Gadget,70.50,120.50
`)

	_, err := runCLI(t, "analyze", path, "top-products")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}
