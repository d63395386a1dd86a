// Package filter compiles user-supplied filter rules into parameterized
// predicates. It is the sole gate between untrusted filter payloads and the
// query engine: every rule is validated against the dataset schema and the
// operator grammar before any SQL text is produced, and user values only
// ever appear as positional parameters — never inlined into clause text.
package filter

import (
	"fmt"
	"reflect"
	"strings"

	"datareduce/internal/ddl"
	"datareduce/internal/domain"
)

// comparisonSQL maps scalar comparison operators to their SQL form.
var comparisonSQL = map[domain.Operator]string{
	domain.OpEq: "=",
	domain.OpNe: "!=",
	domain.OpGt: ">",
	domain.OpGe: ">=",
	domain.OpLt: "<",
	domain.OpLe: "<=",
}

// Compile validates rules against the known schema and produces a
// parameterized predicate joined by logic.
//
// An empty rule list compiles to the always-true predicate (empty clause,
// zero parameters) — that is not an error. Clauses are emitted in rule
// order; with AND/OR being commutative the ordering carries no semantics.
func Compile(rules []domain.FilterRule, logic domain.Logic, columns []domain.ColumnDescriptor) (domain.CompiledPredicate, error) {
	var (
		clauses []string
		params  []interface{}
	)

	for _, rule := range rules {
		clause, ruleParams, err := compileRule(rule, columns)
		if err != nil {
			return domain.CompiledPredicate{}, err
		}
		clauses = append(clauses, clause)
		params = append(params, ruleParams...)
	}

	if len(clauses) == 0 {
		return domain.CompiledPredicate{}, nil
	}

	joiner := " AND "
	if logic == domain.LogicOr {
		joiner = " OR "
	}
	return domain.CompiledPredicate{
		Clause: strings.Join(clauses, joiner),
		Params: params,
	}, nil
}

// compileRule turns a single rule into a clause fragment plus its parameters.
// The column must exist in the schema before any text is built.
func compileRule(rule domain.FilterRule, columns []domain.ColumnDescriptor) (string, []interface{}, error) {
	if !domain.HasColumn(columns, rule.Column) {
		return "", nil, &domain.UnknownColumnError{Column: rule.Column}
	}
	if err := ddl.ValidateIdentifier(rule.Column); err != nil {
		// Schema-listed names passed HasColumn; this guards a corrupted schema.
		return "", nil, &domain.UnknownColumnError{Column: rule.Column}
	}
	col := ddl.QuoteIdentifier(rule.Column)

	if op, ok := comparisonSQL[rule.Operator]; ok {
		v, err := scalarOperand(rule)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", col, op), []interface{}{v}, nil
	}

	switch rule.Operator {
	case domain.OpContains:
		v, err := scalarOperand(rule)
		if err != nil {
			return "", nil, err
		}
		// The wildcard wrapping happens in the parameter, not the clause,
		// so LIKE metacharacters in the value stay data.
		return fmt.Sprintf("%s LIKE ?", col), []interface{}{fmt.Sprintf("%%%v%%", v)}, nil

	case domain.OpBetween:
		vals, ok := listOperand(rule.Value)
		if !ok || len(vals) != 2 {
			return "", nil, domain.ErrMalformedOperand(
				"operator between on column %q requires exactly two values [low, high]", rule.Column)
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", col), vals, nil

	case domain.OpIn:
		vals, ok := listOperand(rule.Value)
		if !ok || len(vals) == 0 {
			return "", nil, domain.ErrMalformedOperand(
				"operator in on column %q requires a non-empty list", rule.Column)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")
		return fmt.Sprintf("%s IN (%s)", col, placeholders), vals, nil

	default:
		return "", nil, &domain.UnsupportedOperatorError{Operator: string(rule.Operator)}
	}
}

// scalarOperand rejects list-shaped or missing values for scalar operators.
func scalarOperand(rule domain.FilterRule) (interface{}, error) {
	if rule.Value == nil {
		return nil, domain.ErrMalformedOperand(
			"operator %s on column %q requires a value", rule.Operator, rule.Column)
	}
	if _, isList := listOperand(rule.Value); isList {
		return nil, domain.ErrMalformedOperand(
			"operator %s on column %q requires a scalar value, got a list", rule.Operator, rule.Column)
	}
	return rule.Value, nil
}

// listOperand normalizes any slice or array value into []interface{}.
// JSON payloads arrive as []interface{}; programmatic callers may pass
// typed slices. Strings and byte slices are scalars, not lists.
func listOperand(v interface{}) ([]interface{}, bool) {
	if v == nil {
		return nil, false
	}
	if vs, ok := v.([]interface{}); ok {
		return vs, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
