package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"datareduce/internal/ddl"
	"datareduce/internal/domain"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Compile-time checks.
var (
	_ domain.SchemaDescriptor = (*DuckDBEngine)(nil)
	_ domain.QueryExecutor    = (*DuckDBEngine)(nil)
)

// DuckDBEngine executes describe, preview, and export operations against
// dataset files. It holds no connection state of its own: every call runs
// in a fresh session released on return.
type DuckDBEngine struct{}

// NewDuckDBEngine creates a DuckDBEngine.
func NewDuckDBEngine() *DuckDBEngine {
	return &DuckDBEngine{}
}

// Describe returns the dataset's ordered column list with normalized type
// tags. Fails with DatasetNotFound when the handle does not resolve and
// SchemaUnavailable when DuckDB cannot derive a structure from the file.
func (e *DuckDBEngine) Describe(ctx context.Context, handle domain.DatasetHandle) ([]domain.ColumnDescriptor, error) {
	sess, err := openSession(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	describeSQL := fmt.Sprintf(
		"SELECT column_name, column_type FROM (DESCRIBE SELECT * FROM %s)",
		ddl.QuoteIdentifier(ddl.DatasetViewName),
	)
	rows, err := sess.db.QueryContext(ctx, describeSQL)
	if err != nil {
		return nil, domain.ErrSchemaUnavailable("dataset %s schema could not be read", handle.ID)
	}
	defer rows.Close() //nolint:errcheck

	var columns []domain.ColumnDescriptor
	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return nil, domain.ErrSchemaUnavailable("dataset %s schema could not be read", handle.ID)
		}
		columns = append(columns, domain.ColumnDescriptor{
			Name:         name,
			DeclaredType: declared,
			Type:         mapTypeTag(declared),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrSchemaUnavailable("dataset %s schema could not be read", handle.ID)
	}
	if len(columns) == 0 {
		return nil, domain.ErrSchemaUnavailable("dataset %s has no columns", handle.ID)
	}
	return columns, nil
}

// PreviewCount runs a COUNT(*) with the compiled predicate as the row
// filter. Zero matches is a normal result, not an error.
func (e *DuckDBEngine) PreviewCount(ctx context.Context, handle domain.DatasetHandle, predicate domain.CompiledPredicate) (domain.PreviewResult, error) {
	start := time.Now()

	sess, err := openSession(ctx, handle)
	if err != nil {
		return domain.PreviewResult{}, err
	}
	defer sess.close()

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s",
		ddl.QuoteIdentifier(ddl.DatasetViewName), predicate.WhereSQL())

	var matched int64
	if err := sess.db.QueryRowContext(ctx, countSQL, predicate.Params...).Scan(&matched); err != nil {
		return domain.PreviewResult{}, domain.ErrExecutionFailed(err, "count query failed against dataset %s", handle.ID)
	}

	return domain.PreviewResult{MatchedRows: matched, Elapsed: time.Since(start)}, nil
}

// Query executes a fixed-shape server-side statement against the dataset
// view and scans the full result. The SQL text must never embed caller
// input — caller values belong in params.
func (e *DuckDBEngine) Query(ctx context.Context, handle domain.DatasetHandle, sqlText string, params ...interface{}) (*Result, error) {
	sess, err := openSession(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	rows, err := sess.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, domain.ErrExecutionFailed(err, "query failed against dataset %s", handle.ID)
	}
	defer rows.Close() //nolint:errcheck

	result, err := scanResult(rows)
	if err != nil {
		return nil, domain.ErrExecutionFailed(err, "scan results for dataset %s", handle.ID)
	}
	return result, nil
}

// mapTypeTag normalizes a DuckDB type string into the guard engine's tag
// set. Unrecognized types (lists, structs, enums) become unknown.
func mapTypeTag(declared string) domain.TypeTag {
	t := strings.ToUpper(declared)
	// Strip precision/scale, e.g. DECIMAL(18,3).
	if i := strings.IndexByte(t, '('); i > 0 {
		t = t[:i]
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT":
		return domain.TypeInteger
	case "FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC":
		return domain.TypeFloat
	case "BOOLEAN":
		return domain.TypeBoolean
	case "VARCHAR", "CHAR", "TEXT", "STRING", "UUID":
		return domain.TypeString
	case "DATE", "TIME", "TIMESTAMP", "TIMESTAMP_S", "TIMESTAMP_MS",
		"TIMESTAMP_NS", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		return domain.TypeTimestamp
	default:
		return domain.TypeUnknown
	}
}
