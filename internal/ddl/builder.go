package ddl

import "fmt"

// DatasetViewName is the fixed name of the per-session view over a
// dataset file. Sessions are single-dataset, so one name suffices.
const DatasetViewName = "dataset"

// CreateDatasetView returns the DDL that exposes a canonical CSV file as a
// queryable view. IGNORE_ERRORS keeps one malformed row from failing the
// whole scan, matching upload-time leniency.
func CreateDatasetView(csvPath string) (string, error) {
	if csvPath == "" {
		return "", fmt.Errorf("csv path is required")
	}
	return fmt.Sprintf(
		"CREATE VIEW %s AS SELECT * FROM read_csv_auto(%s, IGNORE_ERRORS=true)",
		QuoteIdentifier(DatasetViewName),
		QuoteLiteral(csvPath),
	), nil
}

// CopyToCSV returns a COPY statement that streams the given SELECT into a
// headered, comma-delimited CSV file. COPY does not accept bound
// parameters, so the SELECT must be complete as-is, with no placeholders.
func CopyToCSV(selectSQL, outPath string) (string, error) {
	if selectSQL == "" {
		return "", fmt.Errorf("select statement is required")
	}
	if outPath == "" {
		return "", fmt.Errorf("output path is required")
	}
	return fmt.Sprintf("COPY (%s) TO %s (HEADER, DELIMITER ',')", selectSQL, QuoteLiteral(outPath)), nil
}
