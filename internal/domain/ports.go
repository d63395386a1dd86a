package domain

import (
	"context"
	"time"
)

// SchemaDescriptor fetches the ordered column list for a dataset.
// Implemented by engine.DuckDBEngine.
type SchemaDescriptor interface {
	Describe(ctx context.Context, handle DatasetHandle) ([]ColumnDescriptor, error)
}

// PreviewResult is the outcome of a count-only execution.
type PreviewResult struct {
	MatchedRows int64
	Elapsed     time.Duration
}

// ExportResult points at a written export artifact.
type ExportResult struct {
	Path     string
	Filename string
}

// QueryExecutor drives compiled predicates through the engine.
// Implemented by engine.DuckDBEngine. Both operations are synchronous and
// honor context cancellation; neither retries.
type QueryExecutor interface {
	PreviewCount(ctx context.Context, handle DatasetHandle, predicate CompiledPredicate) (PreviewResult, error)
	Export(ctx context.Context, handle DatasetHandle, predicate CompiledPredicate, format ExportFormat, outDir string) (ExportResult, error)
}

// DatasetRepository persists dataset registrations in the metastore.
type DatasetRepository interface {
	Insert(ctx context.Context, d *Dataset) error
	Get(ctx context.Context, id string) (*Dataset, error)
	List(ctx context.Context) ([]Dataset, error)
}

// ArtifactRepository persists export artifact records for TTL cleanup.
type ArtifactRepository interface {
	Insert(ctx context.Context, a *ExportArtifact) error
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]ExportArtifact, error)
	Delete(ctx context.Context, id string) error
}
