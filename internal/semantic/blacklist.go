package semantic

import "datareduce/internal/domain"

// Metric column names the rule table reasons about.
const (
	ColOrderTotalAmount = "order_total_amount"
	ColItemSubtotal     = "item_subtotal"
	ColPaidAt           = "paid_at"
)

// rawAmountColumns are unaggregated money columns; member-level analysis
// must aggregate them first.
var rawAmountColumns = []string{ColOrderTotalAmount, ColItemSubtotal}

// blacklistRule pairs a schema condition with a finding template. Rules are
// evaluated in declaration order and the output order is stable, so callers
// and tests can rely on it.
type blacklistRule struct {
	match func(grains domain.GrainSet, columns []domain.ColumnDescriptor) (domain.BlacklistFinding, bool)
}

var blacklistRules = []blacklistRule{
	// Order-level amount at item grain double-counts across item rows.
	{match: func(grains domain.GrainSet, columns []domain.ColumnDescriptor) (domain.BlacklistFinding, bool) {
		if !grains.Has(domain.GrainItem) || !domain.HasColumn(columns, ColOrderTotalAmount) {
			return domain.BlacklistFinding{}, false
		}
		return domain.BlacklistFinding{
			Grain:    domain.GrainItem,
			Metrics:  []string{ColOrderTotalAmount},
			Reason:   "order-level amount is double-counted when summed at item grain",
			Severity: domain.SeverityBlock,
		}, true
	}},

	// Item-level subtotal at order grain has no coherent meaning.
	{match: func(grains domain.GrainSet, columns []domain.ColumnDescriptor) (domain.BlacklistFinding, bool) {
		if !grains.Has(domain.GrainOrder) || !domain.HasColumn(columns, ColItemSubtotal) {
			return domain.BlacklistFinding{}, false
		}
		return domain.BlacklistFinding{
			Grain:    domain.GrainOrder,
			Metrics:  []string{ColItemSubtotal},
			Reason:   "item-level subtotal loses its meaning at order grain",
			Severity: domain.SeverityBlock,
		}, true
	}},

	// Member-level analysis over raw amount columns needs pre-aggregation.
	{match: func(grains domain.GrainSet, columns []domain.ColumnDescriptor) (domain.BlacklistFinding, bool) {
		if !grains.Has(domain.GrainMember) {
			return domain.BlacklistFinding{}, false
		}
		var present []string
		for _, col := range rawAmountColumns {
			if domain.HasColumn(columns, col) {
				present = append(present, col)
			}
		}
		if len(present) == 0 {
			return domain.BlacklistFinding{}, false
		}
		return domain.BlacklistFinding{
			Grain:    domain.GrainMember,
			Metrics:  present,
			Reason:   "member-level analysis requires aggregating raw amount columns first",
			Severity: domain.SeverityWarning,
		}, true
	}},

	// paid_at carries nulls for unpaid orders; analyses over it need an
	// order-status filter alongside.
	{match: func(grains domain.GrainSet, columns []domain.ColumnDescriptor) (domain.BlacklistFinding, bool) {
		if !domain.HasColumn(columns, ColPaidAt) {
			return domain.BlacklistFinding{}, false
		}
		return domain.BlacklistFinding{
			Grain:    domain.GrainAll,
			Metrics:  []string{ColPaidAt},
			Reason:   "payment timestamp may be null; pair it with order-status filtering",
			Severity: domain.SeverityWarning,
		}, true
	}},
}

// DeriveBlacklist evaluates the fixed rule table against the detected
// grains and schema. Pure and deterministic; findings appear in
// rule-declaration order.
func DeriveBlacklist(grains domain.GrainSet, columns []domain.ColumnDescriptor) []domain.BlacklistFinding {
	var findings []domain.BlacklistFinding
	for _, rule := range blacklistRules {
		if f, ok := rule.match(grains, columns); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// MetricBlocked reports whether a block-severity finding names metric.
// This is the server-side gate: analysis endpoints must reject, not merely
// warn, when it returns true — independent of any caller-facing layer.
func MetricBlocked(findings []domain.BlacklistFinding, metric string) (string, bool) {
	for _, f := range findings {
		if f.Severity != domain.SeverityBlock {
			continue
		}
		for _, m := range f.Metrics {
			if m == metric {
				return f.Reason, true
			}
		}
	}
	return "", false
}
