package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"datareduce/internal/ddl"
	"datareduce/internal/domain"
)

// Export applies the predicate as a row filter, projects all columns, and
// writes the result as an artifact file under outDir.
//
// CSV exports go through DuckDB's COPY, which streams rows straight to the
// file — the result is never materialized in process. XLSX is not a
// streaming format: the full result set is held in memory before encoding,
// so xlsx export memory scales with the matched row count.
//
// Each call recomputes from the source file; artifacts are never reused.
func (e *DuckDBEngine) Export(ctx context.Context, handle domain.DatasetHandle, predicate domain.CompiledPredicate, format domain.ExportFormat, outDir string) (domain.ExportResult, error) {
	selectSQL := fmt.Sprintf("SELECT * FROM %s%s",
		ddl.QuoteIdentifier(ddl.DatasetViewName), predicate.WhereSQL())

	filename := fmt.Sprintf("%s_filtered.%s", handle.ID, format)
	outPath := filepath.Join(outDir, filename)

	switch format {
	case domain.FormatCSV:
		if err := e.exportCSV(ctx, handle, selectSQL, predicate.Params, outPath); err != nil {
			return domain.ExportResult{}, err
		}
	case domain.FormatXLSX:
		if err := e.exportXLSX(ctx, handle, selectSQL, predicate.Params, outPath); err != nil {
			return domain.ExportResult{}, err
		}
	default:
		return domain.ExportResult{}, domain.ErrValidation("export format must be csv or xlsx, got %q", format)
	}

	return domain.ExportResult{Path: outPath, Filename: filename}, nil
}

func (e *DuckDBEngine) exportCSV(ctx context.Context, handle domain.DatasetHandle, selectSQL string, params []interface{}, outPath string) error {
	sess, err := openSession(ctx, handle)
	if err != nil {
		return err
	}
	defer sess.close()

	// Unfiltered exports take the COPY fast path: DuckDB writes the file
	// directly. COPY does not accept bound parameters, so filtered exports
	// stream row by row through a csv.Writer instead — still constant
	// memory, just crossing the driver boundary per row.
	if len(params) == 0 {
		copySQL, err := ddl.CopyToCSV(selectSQL, outPath)
		if err != nil {
			return fmt.Errorf("build copy statement: %w", err)
		}
		if _, err := sess.db.ExecContext(ctx, copySQL); err != nil {
			return domain.ErrExecutionFailed(err, "csv export failed for dataset %s", handle.ID)
		}
		return nil
	}

	rows, err := sess.db.QueryContext(ctx, selectSQL, params...)
	if err != nil {
		return domain.ErrExecutionFailed(err, "csv export failed for dataset %s", handle.ID)
	}
	defer rows.Close() //nolint:errcheck

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer out.Close() //nolint:errcheck

	w := csv.NewWriter(out)
	cols, err := rows.Columns()
	if err != nil {
		return domain.ErrExecutionFailed(err, "csv export failed for dataset %s", handle.ID)
	}
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	record := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return domain.ErrExecutionFailed(err, "csv export failed for dataset %s", handle.ID)
		}
		for i, v := range vals {
			record[i] = csvField(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ErrExecutionFailed(err, "csv export failed for dataset %s", handle.ID)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return out.Close()
}

// csvField renders one scanned value the way DuckDB's COPY would, so the
// two CSV paths produce interchangeable files.
func csvField(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", x)
	}
}

func (e *DuckDBEngine) exportXLSX(ctx context.Context, handle domain.DatasetHandle, selectSQL string, params []interface{}, outPath string) error {
	result, err := e.Query(ctx, handle, selectSQL, params...)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		return domain.ErrExecutionFailed(err, "xlsx export failed for dataset %s", handle.ID)
	}

	header := make([]interface{}, len(result.Columns))
	for i, c := range result.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return domain.ErrExecutionFailed(err, "xlsx export failed for dataset %s", handle.ID)
	}

	for i, row := range result.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return domain.ErrExecutionFailed(err, "xlsx export failed for dataset %s", handle.ID)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return domain.ErrExecutionFailed(err, "xlsx export failed for dataset %s", handle.ID)
		}
	}
	if err := sw.Flush(); err != nil {
		return domain.ErrExecutionFailed(err, "xlsx export failed for dataset %s", handle.ID)
	}
	if err := f.SaveAs(outPath); err != nil {
		return domain.ErrExecutionFailed(err, "xlsx export failed for dataset %s", handle.ID)
	}
	return nil
}
