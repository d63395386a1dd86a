package domain

import "time"

// TypeTag classifies a column's declared type into the small set of
// semantics the guard rules care about.
type TypeTag string

const (
	TypeInteger   TypeTag = "integer"
	TypeFloat     TypeTag = "float"
	TypeBoolean   TypeTag = "boolean"
	TypeString    TypeTag = "string"
	TypeTimestamp TypeTag = "timestamp"
	TypeUnknown   TypeTag = "unknown"
)

// ColumnDescriptor is one column of a freshly described dataset schema.
// Immutable once fetched; DeclaredType keeps the engine's raw type string
// alongside the normalized tag.
type ColumnDescriptor struct {
	Name         string  `json:"name"`
	DeclaredType string  `json:"declared_type"`
	Type         TypeTag `json:"type"`
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []ColumnDescriptor) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether cols contains a column with the exact name.
func HasColumn(cols []ColumnDescriptor, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Dataset is a registered upload in the metastore.
type Dataset struct {
	ID        string
	Filename  string // original filename as uploaded
	Path      string // canonical CSV path under the input dir
	SizeBytes int64
	CreatedAt time.Time
}

// DatasetHandle is a resolved reference to a stored dataset file. It is the
// only thing the engine needs to open a session.
type DatasetHandle struct {
	ID   string
	Path string
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat validates a caller-supplied format string.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatCSV, FormatXLSX:
		return ExportFormat(s), nil
	default:
		return "", ErrValidation("export format must be csv or xlsx, got %q", s)
	}
}

// ExportArtifact is a file produced by an export call, recorded so the
// cleanup job can purge it after its TTL.
type ExportArtifact struct {
	ID        string
	DatasetID string
	Path      string
	Filename  string
	Format    ExportFormat
	CreatedAt time.Time
}
