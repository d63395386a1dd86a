package domain

import "sort"

// Grain is the level of granularity one row of a dataset represents.
type Grain string

const (
	GrainOrder  Grain = "order"
	GrainItem   Grain = "item"
	GrainMember Grain = "member"

	// GrainAll marks a finding that applies regardless of grain.
	GrainAll Grain = "all"
)

// GrainSet is the set of grains a dataset is consistent with. Derived
// purely from column presence, recomputed per schema fetch.
type GrainSet map[Grain]bool

// Has reports membership.
func (s GrainSet) Has(g Grain) bool { return s[g] }

// Sorted returns the grains in stable lexical order for serialization.
func (s GrainSet) Sorted() []Grain {
	out := make([]Grain, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Severity classifies a blacklist finding.
type Severity string

const (
	// SeverityBlock findings must prevent the analysis server-side.
	SeverityBlock Severity = "block"
	// SeverityWarning findings must be surfaced but may proceed.
	SeverityWarning Severity = "warning"
)

// BlacklistFinding flags a metric/grain combination that is semantically
// invalid or risky at the dataset's granularity. Findings are data, not
// errors: the caller decides what to do with warnings, but block findings
// must be enforced before any aggregate runs.
type BlacklistFinding struct {
	Grain    Grain    `json:"grain"`
	Metrics  []string `json:"metrics"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}
