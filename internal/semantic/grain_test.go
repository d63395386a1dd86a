package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datareduce/internal/domain"
)

func cols(names ...string) []domain.ColumnDescriptor {
	out := make([]domain.ColumnDescriptor, len(names))
	for i, n := range names {
		out[i] = domain.ColumnDescriptor{Name: n, DeclaredType: "VARCHAR", Type: domain.TypeString}
	}
	return out
}

func TestDetectGrains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		columns []string
		want    []domain.Grain
	}{
		{name: "none", columns: []string{"foo", "bar"}, want: nil},
		{name: "order_only", columns: []string{"order_id", "amount"}, want: []domain.Grain{domain.GrainOrder}},
		{name: "item_only", columns: []string{"product_id"}, want: []domain.Grain{domain.GrainItem}},
		{name: "member_only", columns: []string{"member_id"}, want: []domain.Grain{domain.GrainMember}},
		{
			name:    "order_item_fact_table",
			columns: []string{"order_id", "product_id", "item_subtotal"},
			want:    []domain.Grain{domain.GrainItem, domain.GrainOrder},
		},
		{
			name:    "all_three",
			columns: []string{"order_id", "product_id", "member_id"},
			want:    []domain.Grain{domain.GrainItem, domain.GrainMember, domain.GrainOrder},
		},
		// Exact-name match only: near-miss names never count.
		{name: "partial_match_ignored", columns: []string{"order_number", "product_sku", "member_uuid"}, want: nil},
		{name: "empty_schema", columns: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectGrains(cols(tt.columns...))
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got.Sorted())
		})
	}
}

// Adding columns can only add grains, never remove one.
func TestDetectGrains_MonotonicInColumns(t *testing.T) {
	t.Parallel()

	base := []string{"order_id"}
	extras := []string{"product_id", "member_id", "amount", "paid_at", "order_number"}

	prev := DetectGrains(cols(base...))
	grown := base
	for _, extra := range extras {
		grown = append(grown, extra)
		next := DetectGrains(cols(grown...))
		for g := range prev {
			require.True(t, next.Has(g), "grain %s lost after adding %s", g, extra)
		}
		prev = next
	}
}

func TestAvailableAnalyses(t *testing.T) {
	t.Parallel()

	assert.Empty(t, AvailableAnalyses(cols("foo")))

	got := AvailableAnalyses(cols("order_total_amount", "purchase_time", "member_id"))
	assert.Equal(t, []string{
		AnalysisTotalAmountByDimension,
		AnalysisTimeSeriesTrend,
		AnalysisMemberRanking,
	}, got)

	assert.Equal(t, []string{AnalysisTimeSeriesTrend}, AvailableAnalyses(cols("purchase_time")))

	assert.Equal(t, []string{AnalysisNewVsReturning}, AvailableAnalyses(cols("first_purchase_flag")))
}

func TestCapabilitiesCatalog(t *testing.T) {
	t.Parallel()

	caps := Capabilities()
	require.Len(t, caps, 5)

	keys := make([]string, len(caps))
	for i, c := range caps {
		keys[i] = c.Key
		assert.NotEmpty(t, c.Label)
		assert.NotEmpty(t, c.Chart)
	}
	assert.Contains(t, keys, AnalysisNewVsReturning)
	assert.Contains(t, keys, AnalysisAverageOrderValue)
}
