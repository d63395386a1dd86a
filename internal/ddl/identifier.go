// Package ddl builds the small set of DuckDB statements the engine needs
// (dataset views, COPY exports) and owns identifier/literal quoting.
package ddl

import (
	"fmt"
	"strings"
)

// maxIdentifierLen is the maximum length allowed for a SQL identifier.
const maxIdentifierLen = 256

// ValidateIdentifier checks that a column name coming out of a dataset
// schema is usable as a quoted identifier: non-empty, bounded, and free of
// control characters. Dataset headers may contain spaces and punctuation —
// quoting handles those — but NUL or newlines are never legitimate.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is required")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("identifier must be at most %d characters", maxIdentifierLen)
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return fmt.Errorf("identifier contains control characters")
	}
	return nil
}

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double-quote characters by doubling them (standard SQL).
//
// Always quotes unconditionally — the caller should validate first if needed.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes, escaping any
// embedded single-quote characters by doubling them (standard SQL).
// Used only for trusted server-side strings such as storage paths —
// user-supplied values are always bound as parameters instead.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
