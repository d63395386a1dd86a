// Package engine is the DuckDB execution adapter. It owns per-request
// sessions over dataset files and is the only package that hands SQL to
// the engine — everything it executes is either a fixed server-side shape
// or a compiled predicate whose values arrive as bound parameters.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"datareduce/internal/ddl"
	"datareduce/internal/domain"
)

// session is one DuckDB connection scoped to a single dataset. Each
// engine call opens its own session and releases it deterministically, so
// concurrent requests never share connection state.
type session struct {
	db *sql.DB
}

// openSession stats the dataset file, opens an in-memory DuckDB database,
// and exposes the file as the "dataset" view.
func openSession(ctx context.Context, handle domain.DatasetHandle) (*session, error) {
	if _, err := os.Stat(handle.Path); err != nil {
		return nil, domain.ErrDatasetNotFound("dataset %s not found", handle.ID)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, domain.ErrExecutionFailed(err, "open engine session")
	}

	viewSQL, err := ddl.CreateDatasetView(handle.Path)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build dataset view: %w", err)
	}
	if _, err := db.ExecContext(ctx, viewSQL); err != nil {
		_ = db.Close()
		return nil, domain.ErrSchemaUnavailable("dataset %s could not be opened as a table", handle.ID)
	}

	return &session{db: db}, nil
}

func (s *session) close() {
	_ = s.db.Close()
}

// Result holds the structured output of one engine query.
type Result struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
}

// scanResult drains rows into a Result, converting byte slices to strings
// for JSON serialization. The caller owns closing rows.
func scanResult(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var resultRows [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Columns:  cols,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
