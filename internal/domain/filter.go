package domain

import "strings"

// Operator is a filter comparison operator. The set is closed: anything else
// is rejected at compile time, before the engine is reached.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGe       Operator = "ge"
	OpLt       Operator = "lt"
	OpLe       Operator = "le"
	OpContains Operator = "contains"
	OpBetween  Operator = "between"
	OpIn       Operator = "in"
)

// Logic joins multiple filter clauses.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ParseLogic validates a caller-supplied combination logic. An empty
// string defaults to AND, matching the original request shape.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(s) {
	case "", "AND":
		return LogicAnd, nil
	case "OR":
		return LogicOr, nil
	default:
		return "", ErrValidation("logic must be AND or OR, got %q", s)
	}
}

// FilterRule is one user-supplied predicate: column, operator, value.
// Value is a scalar for the comparison operators, exactly two elements for
// between, and a non-empty list for in. Transient — built per request,
// never persisted.
type FilterRule struct {
	Column   string      `json:"column"`
	Operator Operator    `json:"op"`
	Value    interface{} `json:"value"`
}

// CompiledPredicate is the sole artifact allowed to cross the execution
// boundary. Clause holds the condition body (no WHERE keyword) with
// positional placeholders; Params holds the user values in placeholder
// order. The clause text never contains a user-supplied value — that is the
// security invariant of the whole subsystem.
type CompiledPredicate struct {
	Clause string
	Params []interface{}
}

// IsAlwaysTrue reports whether the predicate applies no filtering
// (compiled from an empty rule list).
func (p CompiledPredicate) IsAlwaysTrue() bool {
	return p.Clause == ""
}

// WhereSQL returns " WHERE <clause>" or an empty string for the
// always-true predicate.
func (p CompiledPredicate) WhereSQL() string {
	if p.IsAlwaysTrue() {
		return ""
	}
	return " WHERE " + p.Clause
}
