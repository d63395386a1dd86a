package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datareduce/internal/domain"
)

func TestDeriveBlacklist_OrderAmountAtItemGrain(t *testing.T) {
	t.Parallel()

	// order_id + product_id + order_total_amount: the order-level amount is
	// repeated per item row, so summing it must be blocked.
	columns := cols("order_id", "product_id", "order_total_amount")
	grains := DetectGrains(columns)
	require.True(t, grains.Has(domain.GrainOrder))
	require.True(t, grains.Has(domain.GrainItem))

	findings := DeriveBlacklist(grains, columns)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.GrainItem, findings[0].Grain)
	assert.Equal(t, []string{ColOrderTotalAmount}, findings[0].Metrics)
	assert.Equal(t, domain.SeverityBlock, findings[0].Severity)
}

func TestDeriveBlacklist_ItemSubtotalNeedsItemGrainAbsentRuleOneFires(t *testing.T) {
	t.Parallel()

	// No product_id, so item grain is not detected and the
	// order-amount-at-item-grain rule stays silent. The subtotal rule fires
	// because the order grain is present alongside item_subtotal.
	columns := cols("order_id", "item_subtotal", "order_total_amount")
	grains := DetectGrains(columns)
	require.True(t, grains.Has(domain.GrainOrder))
	require.False(t, grains.Has(domain.GrainItem))

	findings := DeriveBlacklist(grains, columns)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.GrainOrder, findings[0].Grain)
	assert.Equal(t, []string{ColItemSubtotal}, findings[0].Metrics)
	assert.Equal(t, domain.SeverityBlock, findings[0].Severity)
}

func TestDeriveBlacklist_MemberWarning(t *testing.T) {
	t.Parallel()

	columns := cols("member_id", "order_total_amount", "item_subtotal")
	findings := DeriveBlacklist(DetectGrains(columns), columns)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.GrainMember, findings[0].Grain)
	assert.Equal(t, []string{ColOrderTotalAmount, ColItemSubtotal}, findings[0].Metrics)
	assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
}

func TestDeriveBlacklist_PaidAtWarning(t *testing.T) {
	t.Parallel()

	columns := cols("foo", "paid_at")
	findings := DeriveBlacklist(DetectGrains(columns), columns)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.GrainAll, findings[0].Grain)
	assert.Equal(t, []string{ColPaidAt}, findings[0].Metrics)
	assert.Equal(t, domain.SeverityWarning, findings[0].Severity)
}

func TestDeriveBlacklist_RuleOrderStable(t *testing.T) {
	t.Parallel()

	// Schema that trips all four rules; findings come out in declaration order.
	columns := cols("order_id", "product_id", "member_id",
		"order_total_amount", "item_subtotal", "paid_at")
	grains := DetectGrains(columns)

	findings := DeriveBlacklist(grains, columns)
	require.Len(t, findings, 4)
	assert.Equal(t, domain.GrainItem, findings[0].Grain)
	assert.Equal(t, domain.GrainOrder, findings[1].Grain)
	assert.Equal(t, domain.GrainMember, findings[2].Grain)
	assert.Equal(t, domain.GrainAll, findings[3].Grain)
}

func TestDeriveBlacklist_Idempotent(t *testing.T) {
	t.Parallel()

	columns := cols("order_id", "product_id", "member_id", "order_total_amount", "paid_at")
	grains := DetectGrains(columns)

	first := DeriveBlacklist(grains, columns)
	second := DeriveBlacklist(grains, columns)
	assert.Equal(t, first, second)
}

func TestDeriveBlacklist_EmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, DeriveBlacklist(domain.GrainSet{}, nil))
	assert.Empty(t, DeriveBlacklist(domain.GrainSet{}, cols("a", "b")))
}

func TestMetricBlocked(t *testing.T) {
	t.Parallel()

	columns := cols("order_id", "product_id", "member_id", "order_total_amount", "paid_at")
	findings := DeriveBlacklist(DetectGrains(columns), columns)

	reason, blocked := MetricBlocked(findings, ColOrderTotalAmount)
	assert.True(t, blocked)
	assert.NotEmpty(t, reason)

	// paid_at is a warning, not a block.
	_, blocked = MetricBlocked(findings, ColPaidAt)
	assert.False(t, blocked)

	_, blocked = MetricBlocked(findings, "unrelated_metric")
	assert.False(t, blocked)

	_, blocked = MetricBlocked(nil, ColOrderTotalAmount)
	assert.False(t, blocked)
}
