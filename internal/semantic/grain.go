// Package semantic infers dataset granularity from the schema and derives
// the analysis blacklist: the metric/grain combinations that are provably
// wrong or risky at that granularity.
package semantic

import "datareduce/internal/domain"

// Grain markers. Matching is by exact column name — partial matches such as
// order_number do not count, and the marker lists are deliberately not
// extended with broader synonyms.
var grainMarkers = []struct {
	column string
	grain  domain.Grain
}{
	{"order_id", domain.GrainOrder},
	{"product_id", domain.GrainItem},
	{"member_id", domain.GrainMember},
}

// DetectGrains returns the set of grains the schema is consistent with.
// Heuristic and pure: no failure path, empty set when no marker is present.
// Markers are independent, so an order-item fact table matches several
// grains at once, and adding columns can only grow the result.
func DetectGrains(columns []domain.ColumnDescriptor) domain.GrainSet {
	grains := domain.GrainSet{}
	for _, m := range grainMarkers {
		if domain.HasColumn(columns, m.column) {
			grains[m.grain] = true
		}
	}
	return grains
}
